package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/vpakspace/ontoguard-ai/pkg/config"
)

const insertEntrySQL = `
	INSERT INTO decision_audit (
		id, ts, role, action, entity_type, entity_id,
		allowed, reason_kind, reason, matched_rule_ref, duration_us
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// PostgresRecorder writes decision entries to an append-only audit table
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder opens a connection pool to the audit database
func NewPostgresRecorder(cfg *config.DatabaseConfig) (*PostgresRecorder, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	return &PostgresRecorder{db: db}, nil
}

// NewPostgresRecorderWithDB wraps an existing connection, used by tests
func NewPostgresRecorderWithDB(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Record implements Recorder
func (p *PostgresRecorder) Record(ctx context.Context, entry *Entry) error {
	_, err := p.db.ExecContext(ctx, insertEntrySQL,
		entry.ID,
		entry.Timestamp,
		entry.Role,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Allowed,
		entry.ReasonKind,
		entry.Reason,
		entry.MatchedRuleRef,
		entry.DurationMicros,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry %s: %w", entry.ID, err)
	}
	return nil
}

// Close implements Recorder
func (p *PostgresRecorder) Close() error {
	return p.db.Close()
}
