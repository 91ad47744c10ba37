package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresConfig contains database configuration for the Postgres driver.
type PostgresConfig struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// PostgresStore is the durable dictionary driver backed by PostgreSQL.
// The name-uniqueness invariant is enforced by a unique constraint, so
// concurrent mutations stay linearizable without application-level locking.
type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS sensitive_entities (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	placeholder TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(config *PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	store := &PostgresStore{db: db, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure dictionary schema: %w", err)
	}

	logger.Info("Dictionary store initialized",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns))

	return store, nil
}

// List returns all entities ordered by creation time.
func (s *PostgresStore) List(ctx context.Context) ([]Entity, error) {
	var out []Entity
	query := `SELECT id, name, placeholder, category, created_at, updated_at
		FROM sensitive_entities ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("failed to list dictionary entities: %w", err)
	}
	return out, nil
}

// Add creates a new entity, rejecting exact-name duplicates.
func (s *PostgresStore) Add(ctx context.Context, name, placeholder, category string) (Entity, error) {
	if err := validateFields(name, placeholder); err != nil {
		return Entity{}, err
	}

	e := Entity{ID: uuid.NewString(), Name: name, Placeholder: placeholder, Category: category}
	query := `INSERT INTO sensitive_entities (id, name, placeholder, category)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, e.ID, e.Name, e.Placeholder, e.Category).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Entity{}, &DuplicateNameError{Name: name}
		}
		return Entity{}, fmt.Errorf("failed to insert dictionary entity: %w", err)
	}

	s.logger.Debug("Dictionary entity added",
		zap.String("id", e.ID),
		zap.String("placeholder", e.Placeholder))

	return e, nil
}

// Update applies partial changes to an existing entity.
func (s *PostgresStore) Update(ctx context.Context, id string, upd Update) (Entity, error) {
	if upd.Name != nil {
		if err := entityNameValid(*upd.Name); err != nil {
			return Entity{}, err
		}
	}
	if upd.Placeholder != nil {
		if err := placeholderValid(*upd.Placeholder); err != nil {
			return Entity{}, err
		}
	}

	var e Entity
	query := `UPDATE sensitive_entities SET
			name        = COALESCE($2, name),
			placeholder = COALESCE($3, placeholder),
			category    = COALESCE($4, category),
			updated_at  = now()
		WHERE id = $1
		RETURNING id, name, placeholder, category, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, id, upd.Name, upd.Placeholder, upd.Category).
		Scan(&e.ID, &e.Name, &e.Placeholder, &e.Category, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entity{}, &NotFoundError{ID: id}
		}
		if isUniqueViolation(err) {
			name := ""
			if upd.Name != nil {
				name = *upd.Name
			}
			return Entity{}, &DuplicateNameError{Name: name}
		}
		return Entity{}, fmt.Errorf("failed to update dictionary entity: %w", err)
	}

	s.logger.Debug("Dictionary entity updated", zap.String("id", id))
	return e, nil
}

// Delete removes an entity; a repeat delete surfaces NotFoundError.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sensitive_entities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dictionary entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{ID: id}
	}

	s.logger.Debug("Dictionary entity deleted", zap.String("id", id))
	return nil
}

// Snapshot reads a fresh name index. The database is the source of truth,
// so there is no stale-cache window after a mutation.
func (s *PostgresStore) Snapshot(ctx context.Context) (*Index, error) {
	entities, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(entities), nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// maskDatabaseURL hides credentials in connection strings for logging.
func maskDatabaseURL(url string) string {
	if at := strings.LastIndex(url, "@"); at > 0 {
		if colon := strings.Index(url, "://"); colon > 0 {
			creds := url[colon+3 : at]
			if c := strings.Index(creds, ":"); c >= 0 {
				return url[:colon+3] + creds[:c] + ":***" + url[at:]
			}
		}
	}
	return url
}
