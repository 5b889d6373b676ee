package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/gentext/gentext/statement"
)

// PostgresStore implements InteractionStore on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns local-development defaults.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "gentext",
		SSLMode: "disable",
	}
}

// NewPostgresStore connects, verifies the connection and ensures the schema.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS interactions (
		id VARCHAR(64) PRIMARY KEY,
		request_id VARCHAR(64) NOT NULL,
		kind VARCHAR(32) NOT NULL,
		partial_sentence TEXT NOT NULL,
		full_sentence TEXT NOT NULL,
		num_statements INT NOT NULL,
		false_sentences JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Add persists one interaction.
func (s *PostgresStore) Add(ctx context.Context, in *Interaction) error {
	if err := stamp(in); err != nil {
		return err
	}

	sentences := in.FalseSentences
	if sentences == nil {
		sentences = []string{}
	}
	payload, err := json.Marshal(sentences)
	if err != nil {
		return fmt.Errorf("failed to marshal statements: %w", err)
	}

	query := `
	INSERT INTO interactions (id, request_id, kind, partial_sentence, full_sentence, num_statements, false_sentences, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		in.ID, in.RequestID, string(in.Kind), in.PartialText, in.FullText, in.Count, string(payload), in.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add interaction: %w", err)
	}
	return nil
}

// Recent returns up to limit interactions, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, kind, partial_sentence, full_sentence, num_statements, false_sentences, created_at
		 FROM interactions
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	out := make([]*Interaction, 0)
	for rows.Next() {
		in := &Interaction{}
		var kind, payload string
		if err := rows.Scan(&in.ID, &in.RequestID, &kind, &in.PartialText, &in.FullText, &in.Count, &payload, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		in.Kind = statement.Kind(kind)
		if err := json.Unmarshal([]byte(payload), &in.FalseSentences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal statements: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}
	return out, nil
}

// Count returns the number of stored interactions.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM interactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return count, nil
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close(_ context.Context) error {
	return s.db.Close()
}
