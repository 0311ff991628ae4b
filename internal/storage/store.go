package storage

import (
	"context"
	"time"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/mission"
)

// Store provides an interface for managing mission data storage. It handles
// missions, scan and spray record streams, the flight audit trail and
// mission summaries. All writes are atomic.
type Store interface {
	// CreateMission registers a new mission for a field of the given
	// dimensions and returns its unique identifier. Config may be a
	// string, []byte or any JSON-serializable value.
	CreateMission(ctx context.Context, startTime time.Time, fieldWidth, fieldHeight, zoneSize float64, config any) (missionID int64, err error)

	// EndMission closes a mission, recording its end time and whether it
	// was interrupted.
	EndMission(ctx context.Context, missionID int64, endTime time.Time, interrupted bool) error

	// Mission retrieves a mission by id; nil if not found.
	Mission(ctx context.Context, missionID int64) (*Mission, error)

	// Missions returns all missions ordered by start time.
	Missions(ctx context.Context) ([]*Mission, error)

	// InsertScan appends one scan record to a mission's stream.
	InsertScan(ctx context.Context, missionID int64, rec mission.ScanRecord) error

	// InsertSpray appends one spray record to a mission's stream.
	InsertSpray(ctx context.Context, missionID int64, rec mission.SprayRecord) error

	// BatchInsertFlightEvents stores flight log entries in a single
	// transaction per batch.
	BatchInsertFlightEvents(ctx context.Context, missionID int64, entries []drone.LogEntry) error

	// StoreSummary persists one mission summary record.
	StoreSummary(ctx context.Context, missionID int64, s *mission.Summary) error

	// Scans returns a mission's scan record stream in append order.
	Scans(ctx context.Context, missionID int64) ([]mission.ScanRecord, error)

	// Sprays returns a mission's spray record stream in append order.
	Sprays(ctx context.Context, missionID int64) ([]mission.SprayRecord, error)

	// Summary retrieves a stored mission summary; nil if not found.
	Summary(ctx context.Context, missionID int64) (*mission.Summary, error)

	// Close releases all database connections. The store cannot be
	// reused afterwards. Safe to call multiple times.
	Close() error
}
