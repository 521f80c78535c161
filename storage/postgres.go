package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estatenexus/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// =============================================================================
// Properties
// =============================================================================

const propertyColumns = `
	p.id, p.title, p.type, p.price, p.beds, p.baths, p.area, p.description,
	p.features, p.images, p.address, p.city, p.state, p.zip_code, p.lat, p.lng,
	p.year_built, p.garage_spaces, p.available, p.created_at, p.agent_id, p.company_id,
	pr.full_name, pr.email, pr.phone, pr.avatar_url`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	var typ string
	var agentName, agentEmail, agentPhone, agentAvatar *string
	err := row.Scan(
		&p.ID, &p.Title, &typ, &p.Price, &p.Beds, &p.Baths, &p.Area, &p.Description,
		&p.Features, &p.Images, &p.Location.Address, &p.Location.City, &p.Location.State,
		&p.Location.Zip, &p.Location.Lat, &p.Location.Lng,
		&p.YearBuilt, &p.GarageSpaces, &p.Available, &p.CreatedAt, &p.AgentID, &p.CompanyID,
		&agentName, &agentEmail, &agentPhone, &agentAvatar,
	)
	if err != nil {
		return nil, err
	}
	p.Type = models.PropertyType(typ)
	if p.AgentID != nil && agentName != nil {
		p.Agent = &models.AgentSummary{
			ID:     *p.AgentID,
			Name:   *agentName,
			Email:  deref(agentEmail),
			Phone:  deref(agentPhone),
			Avatar: deref(agentAvatar),
		}
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListProperties returns every listing newest-first with attached agent
// contact. Facet filtering happens in memory, so this is the only bulk read.
func (s *PostgresStore) ListProperties(ctx context.Context) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties p
		LEFT JOIN profiles pr ON pr.id = p.agent_id
		ORDER BY p.created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties p
		LEFT JOIN profiles pr ON pr.id = p.agent_id
		WHERE p.id = $1`

	p, err := scanProperty(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) GetPropertyByFingerprint(ctx context.Context, fingerprint string) (*models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties p
		LEFT JOIN profiles pr ON pr.id = p.agent_id
		WHERE p.fingerprint = $1`

	p, err := scanProperty(s.pool.QueryRow(ctx, query, fingerprint))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) InsertProperty(ctx context.Context, p *models.Property, fingerprint string) error {
	query := `
		INSERT INTO properties (
			id, fingerprint, title, type, price, beds, baths, area, description,
			features, images, address, city, state, zip_code, lat, lng,
			year_built, garage_spaces, available, created_at, agent_id, company_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23
		)`

	_, err := s.pool.Exec(ctx, query,
		p.ID, fingerprint, p.Title, string(p.Type), p.Price, p.Beds, p.Baths, p.Area, p.Description,
		p.Features, p.Images, p.Location.Address, p.Location.City, p.Location.State,
		p.Location.Zip, p.Location.Lat, p.Location.Lng,
		p.YearBuilt, p.GarageSpaces, p.Available, p.CreatedAt, p.AgentID, p.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

// UpdateProperty replaces the mutable listing fields by id and returns the
// fresh row. Callers never patch shared in-memory state directly.
func (s *PostgresStore) UpdateProperty(ctx context.Context, id uuid.UUID, p *models.Property) (*models.Property, error) {
	query := `
		UPDATE properties SET
			title = $2, type = $3, price = $4, beds = $5, baths = $6, area = $7,
			description = $8, features = $9, images = $10, address = $11,
			city = $12, state = $13, zip_code = $14, lat = $15, lng = $16,
			year_built = $17, garage_spaces = $18, available = $19
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		id, p.Title, string(p.Type), p.Price, p.Beds, p.Baths, p.Area,
		p.Description, p.Features, p.Images, p.Location.Address,
		p.Location.City, p.Location.State, p.Location.Zip, p.Location.Lat, p.Location.Lng,
		p.YearBuilt, p.GarageSpaces, p.Available,
	)
	if err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return s.GetProperty(ctx, id)
}

func (s *PostgresStore) UpdatePropertyImages(ctx context.Context, id uuid.UUID, images []string) error {
	_, err := s.pool.Exec(ctx, `UPDATE properties SET images = $2 WHERE id = $1`, id, images)
	if err != nil {
		return fmt.Errorf("update property images: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}

// PropertiesWithExternalImages returns listings that still reference images
// outside our media host, for the media worker to mirror.
func (s *PostgresStore) PropertiesWithExternalImages(ctx context.Context, mediaHost string, limit int) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties p
		LEFT JOIN profiles pr ON pr.id = p.agent_id
		WHERE EXISTS (
			SELECT 1 FROM unnest(p.images) AS img
			WHERE img NOT LIKE '%' || $1 || '%'
		)
		ORDER BY p.created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, mediaHost, limit)
	if err != nil {
		return nil, fmt.Errorf("list unmirrored properties: %w", err)
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// =============================================================================
// Agents
// =============================================================================

const agentColumns = `
	id, name, email, phone, photo, bio, specializations, experience, rating,
	review_count, listings_count, sold_count, office_name, office_address,
	office_city, office_state, social_facebook, social_twitter,
	social_instagram, social_linkedin, created_at`

func scanAgent(row pgx.Row) (*models.Agent, error) {
	var a models.Agent
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.Photo, &a.Bio, &a.Specializations,
		&a.Experience, &a.Rating, &a.ReviewCount, &a.ListingsCount, &a.SoldCount,
		&a.Office.Name, &a.Office.Address, &a.Office.City, &a.Office.State,
		&a.Social.Facebook, &a.Social.Twitter, &a.Social.Instagram, &a.Social.LinkedIn,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY experience DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	a, err := scanAgent(s.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) UpsertAgent(ctx context.Context, a *models.Agent) error {
	query := `
		INSERT INTO agents (
			id, name, email, phone, photo, bio, specializations, experience,
			rating, review_count, listings_count, sold_count, office_name,
			office_address, office_city, office_state, social_facebook,
			social_twitter, social_instagram, social_linkedin, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			photo = EXCLUDED.photo,
			bio = EXCLUDED.bio,
			specializations = EXCLUDED.specializations,
			experience = EXCLUDED.experience,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			office_name = EXCLUDED.office_name,
			office_address = EXCLUDED.office_address,
			office_city = EXCLUDED.office_city,
			office_state = EXCLUDED.office_state`

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, query,
		a.ID, a.Name, a.Email, a.Phone, a.Photo, a.Bio, a.Specializations, a.Experience,
		a.Rating, a.ReviewCount, a.ListingsCount, a.SoldCount, a.Office.Name,
		a.Office.Address, a.Office.City, a.Office.State, a.Social.Facebook,
		a.Social.Twitter, a.Social.Instagram, a.Social.LinkedIn, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

// RefreshAgentListingCounts recomputes listings_count from live listings,
// matching directory agents to listing agents by email.
func (s *PostgresStore) RefreshAgentListingCounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE agents a SET listings_count = sub.cnt
		FROM (
			SELECT pr.email AS email, COUNT(*) AS cnt
			FROM properties p
			JOIN profiles pr ON pr.id = p.agent_id
			WHERE p.available
			GROUP BY pr.email
		) sub
		WHERE a.email = sub.email AND a.listings_count <> sub.cnt`

	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("refresh agent counts: %w", err)
	}
	return tag.RowsAffected(), nil
}
