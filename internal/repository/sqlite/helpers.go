package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"netdash/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Timestamps are stored as RFC 3339 text so ordering and round-trips do
// not depend on driver-specific time handling.

// timeToText formats a timestamp for storage
func timeToText(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// textToTime parses a stored timestamp
func textToTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// timePtrToNull safely converts *time.Time to a nullable text timestamp
func timePtrToNull(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: timeToText(*t), Valid: true}
}

// nullToTimePtr safely converts a nullable text timestamp to *time.Time
func nullToTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := textToTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the devices table:
// 1. Add field to deviceRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update deviceColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.Device
// 5. Update deviceInsertArgs() and the upsert statement
// 6. Add migration in sqlite.go migrate() using addColumnIfNotExists()
// 7. Update relevant tests
//
// CRITICAL: Column order must match between:
// - deviceColumns constant
// - scanArgs() return slice
// - deviceInsertArgs() return slice

// ============================================================================
// Device Row Scanner
// ============================================================================

// deviceRow holds all columns from a device query for scanning
type deviceRow struct {
	ID               string
	Name             string
	IPAddress        string
	Type             string
	Status           string
	CPUUsage         float64
	MemoryUsage      float64
	CreatedAt        string
	MACAddress       sql.NullString
	InterfaceStatus  sql.NullString
	Protocol         sql.NullString
	MetricsUpdatedAt sql.NullString
	LastSeen         sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match deviceColumns order exactly:
// id, name, ip_address, type, status, cpu_usage, memory_usage, created_at,
// mac_address, interface_status, protocol, metrics_updated_at, last_seen
func (r *deviceRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,               // 1
		&r.Name,             // 2
		&r.IPAddress,        // 3
		&r.Type,             // 4
		&r.Status,           // 5
		&r.CPUUsage,         // 6
		&r.MemoryUsage,      // 7
		&r.CreatedAt,        // 8
		&r.MACAddress,       // 9
		&r.InterfaceStatus,  // 10
		&r.Protocol,         // 11
		&r.MetricsUpdatedAt, // 12
		&r.LastSeen,         // 13
	}
}

// toDomain converts the scanned row to a domain.Device
func (r *deviceRow) toDomain() (*domain.Device, error) {
	createdAt, err := textToTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	metricsUpdatedAt, err := nullToTimePtr(r.MetricsUpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse metrics_updated_at: %w", err)
	}

	lastSeen, err := nullToTimePtr(r.LastSeen)
	if err != nil {
		return nil, fmt.Errorf("parse last_seen: %w", err)
	}

	return &domain.Device{
		ID:               r.ID,
		Name:             r.Name,
		IPAddress:        r.IPAddress,
		Type:             domain.DeviceType(r.Type),
		Status:           r.Status,
		CPUUsage:         r.CPUUsage,
		MemoryUsage:      r.MemoryUsage,
		CreatedAt:        createdAt,
		MACAddress:       nullToString(r.MACAddress),
		InterfaceStatus:  nullToString(r.InterfaceStatus),
		Protocol:         domain.Protocol(nullToString(r.Protocol)),
		MetricsUpdatedAt: metricsUpdatedAt,
		LastSeen:         lastSeen,
	}, nil
}

// deviceColumns is the SELECT column list for device queries
const deviceColumns = `id, name, ip_address, type, status, cpu_usage, memory_usage,
	created_at, mac_address, interface_status, protocol, metrics_updated_at, last_seen`

// ============================================================================
// Device Write Helpers
// ============================================================================

// deviceInsertArgs prepares arguments for device INSERT/UPSERT in deviceColumns order
func deviceInsertArgs(d *domain.Device) []interface{} {
	return []interface{}{
		d.ID,
		d.Name,
		d.IPAddress,
		string(d.Type),
		d.Status,
		d.CPUUsage,
		d.MemoryUsage,
		timeToText(d.CreatedAt),
		stringToNull(d.MACAddress),
		stringToNull(d.InterfaceStatus),
		stringToNull(string(d.Protocol)),
		timePtrToNull(d.MetricsUpdatedAt),
		timePtrToNull(d.LastSeen),
	}
}
