package storage

import (
	"context"
	"time"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/mission"
)

// MissionSink adapts a Store to the mission core's RecordSink interface,
// binding all appended records to one mission row. Storing the summary also
// closes the mission.
type MissionSink struct {
	store     Store
	missionID int64
}

func NewMissionSink(store Store, missionID int64) *MissionSink {
	return &MissionSink{store: store, missionID: missionID}
}

// MissionID returns the mission row this sink writes to.
func (s *MissionSink) MissionID() int64 {
	return s.missionID
}

func (s *MissionSink) AppendScan(ctx context.Context, rec mission.ScanRecord) error {
	return s.store.InsertScan(ctx, s.missionID, rec)
}

func (s *MissionSink) AppendSpray(ctx context.Context, rec mission.SprayRecord) error {
	return s.store.InsertSpray(ctx, s.missionID, rec)
}

func (s *MissionSink) AppendFlightLog(ctx context.Context, entries []drone.LogEntry) error {
	return s.store.BatchInsertFlightEvents(ctx, s.missionID, entries)
}

func (s *MissionSink) StoreSummary(ctx context.Context, sum *mission.Summary) error {
	if err := s.store.StoreSummary(ctx, s.missionID, sum); err != nil {
		return err
	}

	end := sum.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return s.store.EndMission(ctx, s.missionID, end, sum.Interrupted)
}
