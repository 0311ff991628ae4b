package mission

import (
	"context"
	"time"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/field"
)

const (
	ActionPesticide  ActionType = "pesticide"
	ActionFertilizer ActionType = "fertilizer"
	ActionWater      ActionType = "water"
)

// ActionType is the kind of intervention the drone can apply to a zone.
type ActionType string

func (a ActionType) Valid() bool {
	switch a {
	case ActionPesticide, ActionFertilizer, ActionWater:
		return true
	}
	return false
}

// ScanRecord is appended exactly once per scan and immutable thereafter.
type ScanRecord struct {
	ZoneID    string
	Timestamp time.Time
	X         float64
	Y         float64
	Health    field.HealthStatus
	NDVI      float64
	Moisture  float64
}

// SprayRecord is appended exactly once per executed action and immutable
// thereafter.
type SprayRecord struct {
	ActionID  string
	ZoneID    string
	Timestamp time.Time
	Action    ActionType
	Quantity  float64
	Success   bool
	Reason    string
}

// RecordSink receives the mission's persisted artifacts. The persistence
// layer itself is an external collaborator; the core only pushes records
// through this interface and treats sink failures as non-fatal.
type RecordSink interface {
	AppendScan(ctx context.Context, rec ScanRecord) error
	AppendSpray(ctx context.Context, rec SprayRecord) error
	AppendFlightLog(ctx context.Context, entries []drone.LogEntry) error
	StoreSummary(ctx context.Context, s *Summary) error
}

// discardSink keeps the core runnable without any persistence wired in.
type discardSink struct{}

// DiscardSink returns a RecordSink that drops everything.
func DiscardSink() RecordSink { return discardSink{} }

func (discardSink) AppendScan(context.Context, ScanRecord) error          { return nil }
func (discardSink) AppendSpray(context.Context, SprayRecord) error        { return nil }
func (discardSink) AppendFlightLog(context.Context, []drone.LogEntry) error { return nil }
func (discardSink) StoreSummary(context.Context, *Summary) error          { return nil }
