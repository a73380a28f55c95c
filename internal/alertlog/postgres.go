package alertlog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

const schema = `CREATE TABLE IF NOT EXISTS sos_alerts (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	attempted   INTEGER NOT NULL,
	notified    INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
)`

// OpenPostgres opens and pings a PostgreSQL database
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// PostgresRecorder stores records in the sos_alerts table
type PostgresRecorder struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresRecorder(db *sql.DB, logger *zap.Logger) *PostgresRecorder {
	return &PostgresRecorder{db: db, logger: logging.OrNop(logger)}
}

// EnsureSchema creates the table when missing
func (p *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create sos_alerts: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (p *PostgresRecorder) Record(ctx context.Context, r Record) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO sos_alerts (id, user_id, outcome, attempted, notified, failed, latitude, longitude, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.UserID, r.Outcome, r.Attempted, r.Notified, r.Failed,
		nullFloat(r.Latitude), nullFloat(r.Longitude), r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert sos alert: %w", err)
	}
	p.logger.Debug("Alert recorded", zap.String("id", r.ID), zap.String("outcome", r.Outcome))
	return nil
}

func (p *PostgresRecorder) List(ctx context.Context, limit int) ([]Record, error) {
	q := `SELECT id, user_id, outcome, attempted, notified, failed, latitude, longitude, started_at, finished_at
		FROM sos_alerts ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sos alerts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Outcome, &r.Attempted, &r.Notified, &r.Failed,
			&lat, &lng, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan sos alert: %w", err)
		}
		if lat.Valid && lng.Valid {
			r.Latitude, r.Longitude = &lat.Float64, &lng.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
