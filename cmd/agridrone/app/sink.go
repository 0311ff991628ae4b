package app

import (
	"context"
	"sync"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/mission"
)

// sinkSwitch is a RecordSink whose target is swapped when a new mission
// starts, so the long-lived engines write to the current mission's rows.
type sinkSwitch struct {
	mu    sync.RWMutex
	inner mission.RecordSink
}

func newSinkSwitch() *sinkSwitch {
	return &sinkSwitch{inner: mission.DiscardSink()}
}

func (s *sinkSwitch) Set(sink mission.RecordSink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inner = sink
}

// Swap installs a new sink and returns the previous one so a failed
// mission start can restore it.
func (s *sinkSwitch) Swap(sink mission.RecordSink) mission.RecordSink {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.inner
	s.inner = sink
	return prev
}

func (s *sinkSwitch) get() mission.RecordSink {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inner
}

func (s *sinkSwitch) AppendScan(ctx context.Context, rec mission.ScanRecord) error {
	return s.get().AppendScan(ctx, rec)
}

func (s *sinkSwitch) AppendSpray(ctx context.Context, rec mission.SprayRecord) error {
	return s.get().AppendSpray(ctx, rec)
}

func (s *sinkSwitch) AppendFlightLog(ctx context.Context, entries []drone.LogEntry) error {
	return s.get().AppendFlightLog(ctx, entries)
}

func (s *sinkSwitch) StoreSummary(ctx context.Context, sum *mission.Summary) error {
	return s.get().StoreSummary(ctx, sum)
}
