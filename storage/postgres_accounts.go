package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"estatenexus/models"
)

// =============================================================================
// Profiles
// =============================================================================

const profileColumns = `
	id, email, role, full_name, avatar_url, phone, bio, linkedin_url,
	company_id, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	var role string
	err := row.Scan(
		&p.ID, &p.Email, &role, &p.FullName, &p.AvatarURL, &p.Phone, &p.Bio,
		&p.LinkedInURL, &p.CompanyID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = models.PlatformRole(role)
	return &p, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (
			id, email, role, full_name, avatar_url, phone, bio, linkedin_url,
			company_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			full_name = EXCLUDED.full_name,
			avatar_url = EXCLUDED.avatar_url,
			phone = EXCLUDED.phone,
			bio = EXCLUDED.bio,
			linkedin_url = EXCLUDED.linkedin_url,
			company_id = EXCLUDED.company_id,
			updated_at = now()`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Email, string(p.Role), p.FullName, p.AvatarURL, p.Phone, p.Bio,
		p.LinkedInURL, p.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetProfileCompany(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE profiles SET company_id = $2, updated_at = now() WHERE id = $1`,
		userID, companyID)
	if err != nil {
		return fmt.Errorf("set profile company: %w", err)
	}
	return nil
}

// =============================================================================
// Companies and memberships
// =============================================================================

func scanCompany(row pgx.Row) (*models.Company, error) {
	var c models.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Website, &c.Phone, &c.Email,
		&c.Address, &c.City, &c.State, &c.ZipCode, &c.LogoURL, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const companyColumns = `
	id, name, description, website, phone, email, address, city, state,
	zip_code, logo_url, created_at`

func (s *PostgresStore) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCompany inserts the company and its founding admin membership in one
// transaction and points the founder's profile at the new company.
func (s *PostgresStore) CreateCompany(ctx context.Context, c *models.Company, founderID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO companies (id, name, description, website, phone, email,
			address, city, state, zip_code, logo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Name, c.Description, c.Website, c.Phone, c.Email,
		c.Address, c.City, c.State, c.ZipCode, c.LogoURL, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO company_members (id, company_id, user_id, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), c.ID, founderID, string(models.CompanyRoleAdmin),
		string(models.MembershipActive), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert founder membership: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE profiles SET company_id = $2, updated_at = now() WHERE id = $1`,
		founderID, c.ID)
	if err != nil {
		return fmt.Errorf("set founder company: %w", err)
	}

	return tx.Commit(ctx)
}

const memberColumns = `
	m.id, m.company_id, m.user_id, m.role, m.status, m.created_at,
	pr.full_name, pr.email, pr.avatar_url`

func scanMember(row pgx.Row) (*models.CompanyMember, error) {
	var m models.CompanyMember
	var role, status string
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.UserID, &role, &status, &m.CreatedAt,
		&m.FullName, &m.Email, &m.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	m.Role = models.CompanyRole(role)
	m.Status = models.MembershipStatus(status)
	return &m, nil
}

// GetActiveMembership returns the user's active membership, or nil when the
// user has none. Pending and inactive rows are invisible here on purpose.
func (s *PostgresStore) GetActiveMembership(ctx context.Context, userID uuid.UUID) (*models.CompanyMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM company_members m
		JOIN profiles pr ON pr.id = m.user_id
		WHERE m.user_id = $1 AND m.status = 'active'
		ORDER BY m.created_at DESC
		LIMIT 1`

	m, err := scanMember(s.pool.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) ListCompanyMembers(ctx context.Context, companyID uuid.UUID) ([]models.CompanyMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM company_members m
		JOIN profiles pr ON pr.id = m.user_id
		WHERE m.company_id = $1
		ORDER BY m.created_at`

	rows, err := s.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []models.CompanyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetMembership(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM company_members m
		JOIN profiles pr ON pr.id = m.user_id
		WHERE m.company_id = $1 AND m.user_id = $2`

	m, err := scanMember(s.pool.QueryRow(ctx, query, companyID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) InsertMembership(ctx context.Context, m *models.CompanyMember) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO company_members (id, company_id, user_id, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.CompanyID, m.UserID, string(m.Role), string(m.Status), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// UpdateMemberRole reports whether a membership row was updated so callers
// can tell a missing member apart from a failing database.
func (s *PostgresStore) UpdateMemberRole(ctx context.Context, memberID uuid.UUID, role models.CompanyRole) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE company_members SET role = $2 WHERE id = $1`,
		memberID, string(role))
	if err != nil {
		return false, fmt.Errorf("update member role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveMember deactivates the membership and detaches the profile from the
// company. Rows are kept for the audit trail rather than deleted.
func (s *PostgresStore) RemoveMember(ctx context.Context, memberID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE company_members SET status = 'inactive'
		WHERE id = $1 RETURNING user_id`, memberID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE profiles SET company_id = NULL, updated_at = now() WHERE id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("detach profile: %w", err)
	}

	return tx.Commit(ctx)
}

// =============================================================================
// Invitations
// =============================================================================

const invitationColumns = `
	id, company_id, email, role, token, invited_by, status, expires_at, created_at`

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	var role, status string
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.Email, &role, &inv.Token, &inv.InvitedBy,
		&status, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Role = models.CompanyRole(role)
	inv.Status = models.InvitationStatus(status)
	return &inv, nil
}

func (s *PostgresStore) InsertInvitation(ctx context.Context, inv *models.Invitation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO invitations (id, company_id, email, role, token, invited_by,
			status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.CompanyID, inv.Email, string(inv.Role), inv.Token,
		inv.InvitedBy, string(inv.Status), inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv, err := scanInvitation(s.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *PostgresStore) ListCompanyInvitations(ctx context.Context, companyID uuid.UUID) ([]models.Invitation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE company_id = $1 AND status = 'pending'
		 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var out []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetInvitationStatus(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invitations SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("set invitation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ExpireInvitations marks pending invitations past their deadline as expired.
// Run hourly by the scheduler.
func (s *PostgresStore) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invitations SET status = 'expired'
		WHERE status = 'pending' AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// =============================================================================
// Activity feed and dashboard stats
// =============================================================================

func (s *PostgresStore) InsertActivity(ctx context.Context, ev *models.ActivityEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activity_events (type, actor_id, company_id, property_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(ev.Type), ev.ActorID, ev.CompanyID, ev.PropertyID, ev.Message, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActivity(ctx context.Context, companyID *uuid.UUID, limit int) ([]models.ActivityEvent, error) {
	query := `
		SELECT id, type, actor_id, company_id, property_id, message, created_at
		FROM activity_events
		WHERE $1::uuid IS NULL OR company_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return scanActivityRows(rows)
}

// ListActivityByActor returns the events a single user produced, newest
// first. Used for the personal feed of agents without a company.
func (s *PostgresStore) ListActivityByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]models.ActivityEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, actor_id, company_id, property_id, message, created_at
		FROM activity_events
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity by actor: %w", err)
	}
	return scanActivityRows(rows)
}

func scanActivityRows(rows pgx.Rows) ([]models.ActivityEvent, error) {
	defer rows.Close()

	var out []models.ActivityEvent
	for rows.Next() {
		var ev models.ActivityEvent
		var typ string
		err := rows.Scan(&ev.ID, &typ, &ev.ActorID, &ev.CompanyID, &ev.PropertyID,
			&ev.Message, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		ev.Type = models.ActivityType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var st models.DashboardStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM properties),
			(SELECT COUNT(*) FROM properties WHERE available),
			(SELECT COUNT(*) FROM agents),
			(SELECT COUNT(*) FROM companies),
			(SELECT COALESCE(AVG(price), 0) FROM properties WHERE available)
	`).Scan(&st.TotalListings, &st.AvailableListings, &st.TotalAgents,
		&st.TotalCompanies, &st.AveragePrice)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &st, nil
}
