package registry

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/lambdaily/dreambooth/pkg/settings"
)

var DebugLog func(string, ...interface{})

// DB keeps a history of saved config revisions in Postgres. It is optional:
// when disabled (or unreachable) every write becomes a no-op so the tool
// keeps working from the filesystem alone.
type DB struct {
	conn    *sql.DB
	enabled bool
}

// RevisionRecord is one saved config snapshot.
type RevisionRecord struct {
	ModelName string
	Revision  int
	SavedAt   time.Time
	Payload   []byte
}

const DBName = "dreambooth_configs"

func New(cfg *settings.Database) (*DB, error) {
	db := &DB{
		enabled: cfg.Enabled,
	}

	if !cfg.Enabled {
		return db, nil
	}

	postgresConnStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password)

	postgresConn, err := sql.Open("postgres", postgresConnStr)
	if err != nil {
		return db, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer postgresConn.Close()

	if err := postgresConn.Ping(); err != nil {
		return db, fmt.Errorf("failed to ping postgres: %w", err)
	}

	var exists bool
	err = postgresConn.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", DBName).Scan(&exists)
	if err != nil {
		return db, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		_, err = postgresConn.Exec(fmt.Sprintf("CREATE DATABASE %s", DBName))
		if err != nil {
			return db, fmt.Errorf("failed to create database: %w", err)
		}
		if DebugLog != nil {
			DebugLog("database %s created", DBName)
		}
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, DBName)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return db, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return db, fmt.Errorf("failed to ping database: %w", err)
	}

	db.conn = conn

	if err := db.initSchema(); err != nil {
		return db, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (db *DB) initSchema() error {
	if !db.enabled || db.conn == nil {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS config_revisions (
		id SERIAL PRIMARY KEY,
		model_name VARCHAR(255) NOT NULL,
		revision INTEGER NOT NULL,
		saved_at TIMESTAMP NOT NULL DEFAULT NOW(),
		payload JSONB NOT NULL,
		UNIQUE(model_name, revision)
	);

	CREATE INDEX IF NOT EXISTS idx_model_name ON config_revisions(model_name);
	CREATE INDEX IF NOT EXISTS idx_saved_at ON config_revisions(saved_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *DB) IsEnabled() bool {
	return db.enabled && db.conn != nil
}

// RecordRevision stores one saved config snapshot, replacing a previous
// snapshot of the same revision.
func (db *DB) RecordRevision(modelName string, revision int, payload []byte) error {
	if !db.IsEnabled() {
		return nil
	}

	if DebugLog != nil {
		DebugLog("recording revision %d of model %s", revision, modelName)
	}
	_, err := db.conn.Exec(`
		INSERT INTO config_revisions (model_name, revision, saved_at, payload)
		VALUES ($1, $2, NOW(), $3)
		ON CONFLICT (model_name, revision)
		DO UPDATE SET saved_at = NOW(), payload = EXCLUDED.payload
	`, modelName, revision, payload)
	return err
}

// QueryRevisions returns the saved snapshots for one model, newest first.
func (db *DB) QueryRevisions(modelName string) ([]RevisionRecord, error) {
	if !db.IsEnabled() {
		return nil, fmt.Errorf("database is not enabled")
	}

	rows, err := db.conn.Query(`
		SELECT model_name, revision, saved_at, payload
		FROM config_revisions
		WHERE model_name = $1
		ORDER BY revision DESC
	`, modelName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRevisions(rows)
}

// QueryAllRevisions returns the saved snapshots across every model.
func (db *DB) QueryAllRevisions() ([]RevisionRecord, error) {
	if !db.IsEnabled() {
		return nil, fmt.Errorf("database is not enabled")
	}

	rows, err := db.conn.Query(`
		SELECT model_name, revision, saved_at, payload
		FROM config_revisions
		ORDER BY model_name, revision DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRevisions(rows)
}

func scanRevisions(rows *sql.Rows) ([]RevisionRecord, error) {
	var records []RevisionRecord
	for rows.Next() {
		var r RevisionRecord
		if err := rows.Scan(&r.ModelName, &r.Revision, &r.SavedAt, &r.Payload); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
