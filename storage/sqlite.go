package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"estatenexus/models"
)

// SQLiteStore is the local operational store: the audit log of access
// decisions and the outgoing contact-message queue. It lives next to the
// binary so the daemon keeps working when Postgres is unreachable.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS access_audit (
		id INTEGER PRIMARY KEY,
		user_id TEXT,
		path TEXT NOT NULL,
		decision TEXT NOT NULL,
		reason TEXT,
		decided_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contact_messages (
		id INTEGER PRIMARY KEY,
		property_id TEXT,
		agent_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		body TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		sent_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_audit_decided ON access_audit(decided_at);
	CREATE INDEX IF NOT EXISTS idx_messages_unsent ON contact_messages(sent_at) WHERE sent_at IS NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Access audit
// =============================================================================

// RecordAccessDecision appends a denied or redirected guard decision. Allowed
// requests are not logged, denials are what we need to explain later.
func (s *SQLiteStore) RecordAccessDecision(userID *uuid.UUID, path, decision, reason string) error {
	var uid *string
	if userID != nil {
		v := userID.String()
		uid = &v
	}
	_, err := s.db.Exec(`
		INSERT INTO access_audit (user_id, path, decision, reason, decided_at)
		VALUES (?, ?, ?, ?, ?)`,
		uid, path, decision, reason, time.Now().UTC())
	return err
}

func (s *SQLiteStore) PruneAudit(olderThan time.Duration) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM access_audit WHERE decided_at < ?`,
		time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// =============================================================================
// Contact message queue
// =============================================================================

func (s *SQLiteStore) EnqueueContactMessage(m *models.ContactMessage) error {
	var propertyID *string
	if m.PropertyID != nil {
		v := m.PropertyID.String()
		propertyID = &v
	}
	res, err := s.db.Exec(`
		INSERT INTO contact_messages (property_id, agent_id, name, email, phone, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		propertyID, m.AgentID.String(), m.Name, m.Email, m.Phone, m.Body, m.CreatedAt)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) PendingContactMessages(limit int) ([]models.ContactMessage, error) {
	rows, err := s.db.Query(`
		SELECT id, property_id, agent_id, name, email, phone, body, created_at
		FROM contact_messages
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		var propertyID *string
		var agentID string
		if err := rows.Scan(&m.ID, &propertyID, &agentID, &m.Name, &m.Email,
			&m.Phone, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		if propertyID != nil {
			if id, err := uuid.Parse(*propertyID); err == nil {
				m.PropertyID = &id
			}
		}
		if id, err := uuid.Parse(agentID); err == nil {
			m.AgentID = id
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkContactMessageSent(id int64) error {
	_, err := s.db.Exec(`UPDATE contact_messages SET sent_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	return err
}
