package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartfarm/agridrone/internal/analysis"
	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/field"
	"github.com/smartfarm/agridrone/internal/mission"
	"github.com/smartfarm/agridrone/internal/storage"
	"github.com/smartfarm/agridrone/internal/telemetry"
)

const (
	storageDir      = "data"
	shutdownTimeout = 5 * time.Second
)

// Run wires the mission core, storage, telemetry and the control server,
// and blocks until ctx is cancelled.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	seed := config.Field.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	registry, err := field.NewRegistry(config.Field.Width, config.Field.Height, config.Field.ZoneSize, rng)
	if err != nil {
		return fmt.Errorf("failed to create field registry: %w", err)
	}
	logger.Info("field partitioned",
		slog.Int("zones", registry.Count()),
		slog.Int64("seed", seed))

	resources, err := drone.NewResources(config.Drone.TankCapacity)
	if err != nil {
		return fmt.Errorf("failed to create resources: %w", err)
	}

	ctrl, err := drone.NewController(resources,
		drone.WithLogger(logger),
		drone.WithSpeed(config.Drone.Speed),
		drone.WithBatteryRate(config.Drone.BatteryRate),
		drone.WithAltitudes(config.Drone.ScanningAltitude, config.Drone.SprayingAltitude))
	if err != nil {
		return fmt.Errorf("failed to create flight controller: %w", err)
	}

	classifier, err := analysis.NewSimulatedClassifier(rng)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}

	sink := newSinkSwitch()
	metrics := newMetrics(prometheus.DefaultRegisterer)
	instrumented := metrics.instrument(sink)

	scanner, err := mission.NewScanEngine(registry, ctrl, classifier, analysis.NewSimulatedAnalyzer(), rng,
		mission.WithScanLogger(logger),
		mission.WithScanSink(instrumented))
	if err != nil {
		return fmt.Errorf("failed to create scan engine: %w", err)
	}

	executor, err := mission.NewExecutor(registry, ctrl,
		mission.WithExecutorLogger(logger),
		mission.WithExecutorSink(instrumented))
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	orchestrator, err := mission.NewOrchestrator(registry, ctrl, scanner,
		mission.NewDecisionEngine(mission.WithCooldown(config.Mission.Cooldown)),
		executor,
		selectionStrategy(config.Mission.Strategy, rng, ctrl),
		mission.WithOrchestratorLogger(logger),
		mission.WithSink(instrumented))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	metrics.observeStatus(orchestrator.Status)

	var wg sync.WaitGroup
	if config.Telemetry.Enabled {
		client, err := telemetry.Connect(ctx, telemetry.BrokerConfig{
			Host:     config.Telemetry.Host,
			Port:     config.Telemetry.Port,
			Username: config.Telemetry.Username,
			Password: config.Telemetry.Password,
			ClientID: config.Telemetry.ClientID,
		})
		if err != nil {
			return fmt.Errorf("failed to connect telemetry: %w", err)
		}

		publisher, err := telemetry.NewPublisher(client, config.Telemetry.Topic, config.Telemetry.UpdateInterval,
			statusProvider{orchestrator},
			telemetry.WithPublisherLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to create telemetry publisher: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Run(ctx)
		}()
	}

	server := newServer(config, orchestrator, store, sink, logger)
	httpServer := &http.Server{
		Addr:    config.Server.ListenAddr,
		Handler: server.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("control server listening", slog.String("addr", config.Server.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err = <-errCh:
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
	}

	// An active mission lands before the process exits.
	if stopErr := orchestrator.Stop(); stopErr != nil && !errors.Is(stopErr, mission.ErrNoActiveMission) {
		logger.Warn("stopping mission", slog.Any("error", stopErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutting down control server", slog.Any("error", err))
	}

	wg.Wait()
	return nil
}

func selectionStrategy(name string, rng *rand.Rand, ctrl *drone.Controller) field.SelectionStrategy {
	switch name {
	case StrategyRoundRobin:
		return field.NewRoundRobinStrategy()
	case StrategyNearestFirst:
		return field.NewNearestFirstStrategy(func() (float64, float64) {
			pose := ctrl.Pose()
			return pose.X, pose.Y
		})
	default:
		return field.NewRandomStrategy(rng)
	}
}

func createStorage(config *StorageConfig) (storage.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	dbPath := filepath.Join(wd, storageDir)
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("farming_mission_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}

// statusProvider adapts the orchestrator to the telemetry provider
// interface.
type statusProvider struct {
	orchestrator *mission.Orchestrator
}

func (p statusProvider) Get() telemetry.Snapshot {
	s := p.orchestrator.Status()
	return telemetry.Snapshot{
		Timestamp:     time.Now().UTC(),
		X:             s.Pose.X,
		Y:             s.Pose.Y,
		Altitude:      s.Pose.Altitude,
		BatteryLevel:  s.BatteryLevel,
		SprayLevel:    s.SprayLevel,
		IsFlying:      s.IsFlying,
		IsScanning:    s.IsScanning,
		IsSpraying:    s.IsSpraying,
		MissionActive: s.MissionActive,
		ZonesScanned:  s.ZonesScanned,
		ActionsTaken:  s.ActionsTaken,
	}
}
