package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/mission"
)

// fakeStore records the calls MissionSink delegates to it.
type fakeStore struct {
	Store

	scans       map[int64][]mission.ScanRecord
	sprays      map[int64][]mission.SprayRecord
	flightLog   map[int64][]drone.LogEntry
	summaries   map[int64]*mission.Summary
	ended       map[int64]time.Time
	interrupted map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		scans:       make(map[int64][]mission.ScanRecord),
		sprays:      make(map[int64][]mission.SprayRecord),
		flightLog:   make(map[int64][]drone.LogEntry),
		summaries:   make(map[int64]*mission.Summary),
		ended:       make(map[int64]time.Time),
		interrupted: make(map[int64]bool),
	}
}

func (s *fakeStore) InsertScan(_ context.Context, missionID int64, rec mission.ScanRecord) error {
	s.scans[missionID] = append(s.scans[missionID], rec)
	return nil
}

func (s *fakeStore) InsertSpray(_ context.Context, missionID int64, rec mission.SprayRecord) error {
	s.sprays[missionID] = append(s.sprays[missionID], rec)
	return nil
}

func (s *fakeStore) BatchInsertFlightEvents(_ context.Context, missionID int64, entries []drone.LogEntry) error {
	s.flightLog[missionID] = append(s.flightLog[missionID], entries...)
	return nil
}

func (s *fakeStore) StoreSummary(_ context.Context, missionID int64, sum *mission.Summary) error {
	s.summaries[missionID] = sum
	return nil
}

func (s *fakeStore) EndMission(_ context.Context, missionID int64, endTime time.Time, interrupted bool) error {
	s.ended[missionID] = endTime
	s.interrupted[missionID] = interrupted
	return nil
}

func TestMissionSinkBindsRecords(t *testing.T) {
	store := newFakeStore()
	sink := NewMissionSink(store, 7)
	ctx := context.Background()

	assert.Equal(t, int64(7), sink.MissionID())

	require.NoError(t, sink.AppendScan(ctx, mission.ScanRecord{ZoneID: "Zone_0_0"}))
	require.NoError(t, sink.AppendSpray(ctx, mission.SprayRecord{ZoneID: "Zone_0_0"}))
	require.NoError(t, sink.AppendFlightLog(ctx, []drone.LogEntry{{Event: drone.EventTakeoff}}))

	assert.Len(t, store.scans[7], 1)
	assert.Len(t, store.sprays[7], 1)
	assert.Len(t, store.flightLog[7], 1)
}

func TestMissionSinkSummaryEndsMission(t *testing.T) {
	store := newFakeStore()
	sink := NewMissionSink(store, 3)

	end := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	sum := &mission.Summary{EndTime: end, Interrupted: true}

	require.NoError(t, sink.StoreSummary(context.Background(), sum))

	assert.Equal(t, sum, store.summaries[3])
	assert.Equal(t, end, store.ended[3])
	assert.True(t, store.interrupted[3])
}
