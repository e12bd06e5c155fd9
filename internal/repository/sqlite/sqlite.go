package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"netdash/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.DeviceRepository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository. dbPath ":memory:" opens a private
// in-memory database.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases
	// from being split across pool connections.
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		ip_address TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'other',
		status TEXT NOT NULL DEFAULT '',
		cpu_usage REAL NOT NULL DEFAULT 0,
		memory_usage REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		mac_address TEXT,
		interface_status TEXT,
		protocol TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_devices_ip ON devices(ip_address);
	CREATE INDEX IF NOT EXISTS idx_devices_type ON devices(type);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	// Freshness columns were added after the initial schema
	if err := r.addColumnIfNotExists("devices", "metrics_updated_at", "TEXT"); err != nil {
		return err
	}
	return r.addColumnIfNotExists("devices", "last_seen", "TEXT")
}

// addColumnIfNotExists adds a column to an existing table when missing
func (r *Repository) addColumnIfNotExists(table, column, definition string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}

	exists := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		if name == column {
			exists = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	if err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}

// Save inserts or updates a device keyed by ID
func (r *Repository) Save(ctx context.Context, device *domain.Device) (*domain.Device, error) {
	if device == nil || device.ID == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidDevice)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			ip_address = excluded.ip_address,
			type = excluded.type,
			status = excluded.status,
			cpu_usage = excluded.cpu_usage,
			memory_usage = excluded.memory_usage,
			mac_address = excluded.mac_address,
			interface_status = excluded.interface_status,
			protocol = excluded.protocol,
			metrics_updated_at = excluded.metrics_updated_at,
			last_seen = excluded.last_seen
	`, deviceInsertArgs(device)...)
	if err != nil {
		return nil, fmt.Errorf("failed to save device: %w", err)
	}

	return r.FindByID(ctx, device.ID)
}

// FindByID retrieves a single device by ID
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Device, error) {
	var row deviceRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices WHERE id = ?
	`, id).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}

	device, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode device %s: %w", id, err)
	}
	return device, nil
}

// DeleteByID removes a device, reporting whether it existed
func (r *Repository) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected > 0, nil
}

// ExistsByID reports whether a device with the id is stored
func (r *Repository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM devices WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check device: %w", err)
	}
	return exists == 1, nil
}

// FindAll returns every device ordered by creation time
func (r *Repository) FindAll(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := []domain.Device{}
	for rows.Next() {
		var row deviceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		device, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode device %s: %w", row.ID, err)
		}
		devices = append(devices, *device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}

	return devices, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
