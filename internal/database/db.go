package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order
func (db *DB) RunMigrations(migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		fmt.Printf("Running migration: %s\n", filename)

		filePath := filepath.Join(migrationsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	fmt.Println("All migrations completed successfully")
	return nil
}

// InsertReading inserts one reading and fills in its generated id.
func (db *DB) InsertReading(ctx context.Context, r *Reading) error {
	query := `
		INSERT INTO readings (node_id, mq4, mq7, mq135, water_level, health_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	return db.QueryRowContext(
		ctx,
		query,
		r.NodeID,
		r.MQ4,
		r.MQ7,
		r.MQ135,
		r.WaterLevel,
		r.HealthScore,
		r.CreatedAt,
	).Scan(&r.ID)
}

// InsertAlerts inserts a batch of alerts. Alerts are a derived convenience,
// so a partial failure leaves earlier rows in place.
func (db *DB) InsertAlerts(ctx context.Context, alerts []*Alert) error {
	query := `
		INSERT INTO alerts (node_id, type, message, severity, acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	for _, a := range alerts {
		if err := db.QueryRowContext(
			ctx,
			query,
			a.NodeID,
			a.Type,
			a.Message,
			a.Severity,
			a.Acknowledged,
			a.CreatedAt,
		).Scan(&a.ID); err != nil {
			return fmt.Errorf("failed to insert alert %s/%s: %w", a.NodeID, a.Type, err)
		}
	}

	return nil
}

// LatestReading returns the most recently created reading across all nodes,
// or nil when no readings exist.
func (db *DB) LatestReading(ctx context.Context) (*Reading, error) {
	query := `
		SELECT id, node_id, mq4, mq7, mq135, water_level, health_score, created_at
		FROM readings
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var r Reading
	err := db.QueryRowContext(ctx, query).Scan(
		&r.ID,
		&r.NodeID,
		&r.MQ4,
		&r.MQ7,
		&r.MQ135,
		&r.WaterLevel,
		&r.HealthScore,
		&r.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// RecentReadings returns the most recent readings system-wide, newest first.
func (db *DB) RecentReadings(ctx context.Context, limit int) ([]*Reading, error) {
	query := `
		SELECT id, node_id, mq4, mq7, mq135, water_level, health_score, created_at
		FROM readings
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReadings(rows)
}

// AllReadings returns every reading, newest first. Used by the CSV export.
func (db *DB) AllReadings(ctx context.Context) ([]*Reading, error) {
	query := `
		SELECT id, node_id, mq4, mq7, mq135, water_level, health_score, created_at
		FROM readings
		ORDER BY created_at DESC, id DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]*Reading, error) {
	var readings []*Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(
			&r.ID,
			&r.NodeID,
			&r.MQ4,
			&r.MQ7,
			&r.MQ135,
			&r.WaterLevel,
			&r.HealthScore,
			&r.CreatedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, &r)
	}
	return readings, rows.Err()
}

// RecentAlerts returns the most recent alerts with unacknowledged ones
// surfaced first, newest first within each group.
func (db *DB) RecentAlerts(ctx context.Context, limit int) ([]*Alert, error) {
	query := `
		SELECT id, node_id, type, message, severity, acknowledged, created_at
		FROM alerts
		ORDER BY acknowledged ASC, created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]*Alert, error) {
	var alerts []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(
			&a.ID,
			&a.NodeID,
			&a.Type,
			&a.Message,
			&a.Severity,
			&a.Acknowledged,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// ListAlerts returns the most recent alerts, newest first, regardless of
// acknowledgment.
func (db *DB) ListAlerts(ctx context.Context, limit int) ([]*Alert, error) {
	query := `
		SELECT id, node_id, type, message, severity, acknowledged, created_at
		FROM alerts
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// NodesLastSeen returns every node id ever seen in the reading history with
// the timestamp of its newest reading. There is no node registry; node
// identity comes entirely from readings.
func (db *DB) NodesLastSeen(ctx context.Context) ([]*NodeLastSeen, error) {
	query := `
		SELECT node_id, MAX(created_at) AS last_seen
		FROM readings
		GROUP BY node_id
		ORDER BY node_id
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*NodeLastSeen
	for rows.Next() {
		var n NodeLastSeen
		if err := rows.Scan(&n.NodeID, &n.LastSeen); err != nil {
			return nil, err
		}
		nodes = append(nodes, &n)
	}

	return nodes, rows.Err()
}

// AcknowledgeAlert flips an alert to acknowledged. The update is idempotent:
// acknowledging twice, or acknowledging an unknown id, is a no-op success.
func (db *DB) AcknowledgeAlert(ctx context.Context, alertID int64) error {
	query := `
		UPDATE alerts
		SET acknowledged = TRUE
		WHERE id = $1 AND acknowledged = FALSE
	`

	result, err := db.ExecContext(ctx, query, alertID)
	if err != nil {
		return err
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		fmt.Printf("Acknowledge of alert %d changed no rows\n", alertID)
	}

	return nil
}
