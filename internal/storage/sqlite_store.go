package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/field"
	"github.com/smartfarm/agridrone/internal/mission"
)

// maxBatchSize is the number of flight log entries stored per transaction
const maxBatchSize = 100

// SqliteStore handles mission database operations. Writes go through a WAL
// connection, reads through a separate read-only connection; both are
// opened lazily.
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new store backed by the Sqlite database at
// dbPath. The schema is initialized on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateMission(ctx context.Context, startTime time.Time, fieldWidth, fieldHeight, zoneSize float64, config any) (missionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch v := config.(type) {
		case string:
			configData = sql.NullString{String: v, Valid: true}

		case []byte:
			configData = sql.NullString{String: string(v), Valid: true}

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}
			configData = sql.NullString{String: string(p), Valid: true}
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, err
	}

	stmt, err := db.PrepareContext(ctx, insertMissionSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, startTime.UTC(), fieldWidth, fieldHeight, zoneSize, configData)
	if err != nil {
		return 0, fmt.Errorf("inserting mission: %w", err)
	}

	if missionID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("getting mission id: %w", err)
	}
	return missionID, nil
}

func (s *SqliteStore) EndMission(ctx context.Context, missionID int64, endTime time.Time, interrupted bool) error {
	db, err := s.getWriteDB()
	if err != nil {
		return err
	}

	if _, err = db.ExecContext(ctx, endMissionSQL, endTime.UTC(), interrupted, missionID); err != nil {
		return fmt.Errorf("ending mission %d: %w", missionID, err)
	}
	return nil
}

func (s *SqliteStore) Mission(ctx context.Context, missionID int64) (*Mission, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	var row missionRow
	err = db.QueryRowContext(ctx, selectMissionSQL, missionID).Scan(
		&row.ID,
		&row.StartTime,
		&row.EndTime,
		&row.FieldWidth,
		&row.FieldHeight,
		&row.ZoneSize,
		&row.Config,
		&row.Interrupted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying mission %d: %w", missionID, err)
	}

	return row.toMission(), nil
}

func (s *SqliteStore) Missions(ctx context.Context) (missions []*Mission, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectMissionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying missions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row missionRow
		if err = rows.Scan(
			&row.ID,
			&row.StartTime,
			&row.EndTime,
			&row.FieldWidth,
			&row.FieldHeight,
			&row.ZoneSize,
			&row.Config,
			&row.Interrupted,
		); err != nil {
			return nil, fmt.Errorf("scanning mission row: %w", err)
		}
		missions = append(missions, row.toMission())
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating missions: %w", err)
	}

	return missions, nil
}

func (s *SqliteStore) InsertScan(ctx context.Context, missionID int64, rec mission.ScanRecord) error {
	db, err := s.getWriteDB()
	if err != nil {
		return err
	}

	if _, err = db.ExecContext(ctx, insertScanSQL,
		missionID,
		rec.ZoneID,
		rec.Timestamp.UTC(),
		rec.X,
		rec.Y,
		string(rec.Health),
		rec.NDVI,
		rec.Moisture,
	); err != nil {
		return fmt.Errorf("inserting scan record: %w", err)
	}
	return nil
}

func (s *SqliteStore) InsertSpray(ctx context.Context, missionID int64, rec mission.SprayRecord) error {
	db, err := s.getWriteDB()
	if err != nil {
		return err
	}

	if _, err = db.ExecContext(ctx, insertSpraySQL,
		missionID,
		rec.ActionID,
		rec.ZoneID,
		rec.Timestamp.UTC(),
		string(rec.Action),
		rec.Quantity,
		rec.Success,
		rec.Reason,
	); err != nil {
		return fmt.Errorf("inserting spray record: %w", err)
	}
	return nil
}

func (s *SqliteStore) BatchInsertFlightEvents(ctx context.Context, missionID int64, entries []drone.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	db, err := s.getWriteDB()
	if err != nil {
		return err
	}

	for chunk := range slices.Chunk(entries, maxBatchSize) {
		if err = s.insertFlightEventsTx(ctx, db, missionID, chunk); err != nil {
			return fmt.Errorf("storing flight events: %w", err)
		}
	}
	return nil
}

func (s *SqliteStore) insertFlightEventsTx(ctx context.Context, db *sql.DB, missionID int64, entries []drone.LogEntry) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackWithError(tx, &err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertFlightEventSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx,
			missionID,
			e.Timestamp.UTC(),
			string(e.Event),
			e.Description,
			e.X,
			e.Y,
			e.Altitude,
			e.BatteryLevel,
			e.SprayLevel,
		); err != nil {
			return fmt.Errorf("inserting flight event: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SqliteStore) StoreSummary(ctx context.Context, missionID int64, sum *mission.Summary) error {
	p, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return err
	}

	if _, err = db.ExecContext(ctx, insertSummarySQL, missionID, time.Now().UTC(), string(p)); err != nil {
		return fmt.Errorf("inserting summary: %w", err)
	}
	return nil
}

func (s *SqliteStore) Scans(ctx context.Context, missionID int64) (scans []mission.ScanRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectScansSQL, missionID)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var rec mission.ScanRecord
		var health string
		if err = rows.Scan(&rec.ZoneID, &rec.Timestamp, &rec.X, &rec.Y, &health, &rec.NDVI, &rec.Moisture); err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", err)
		}
		rec.Health = field.HealthStatus(health)
		scans = append(scans, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scans: %w", err)
	}

	return scans, nil
}

func (s *SqliteStore) Sprays(ctx context.Context, missionID int64) (sprays []mission.SprayRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectSpraysSQL, missionID)
	if err != nil {
		return nil, fmt.Errorf("querying sprays: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var rec mission.SprayRecord
		var action string
		if err = rows.Scan(&rec.ActionID, &rec.ZoneID, &rec.Timestamp, &action, &rec.Quantity, &rec.Success, &rec.Reason); err != nil {
			return nil, fmt.Errorf("scanning spray row: %w", err)
		}
		rec.Action = mission.ActionType(action)
		sprays = append(sprays, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sprays: %w", err)
	}

	return sprays, nil
}

func (s *SqliteStore) Summary(ctx context.Context, missionID int64) (*mission.Summary, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	var p string
	err = db.QueryRowContext(ctx, selectSummarySQL, missionID).Scan(&p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}

	var sum mission.Summary
	if err = json.Unmarshal([]byte(p), &sum); err != nil {
		return nil, fmt.Errorf("unmarshaling summary: %w", err)
	}
	return &sum, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.writeDB != nil {
			if err := s.writeDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing write connection: %w", err))
			}
		}
		if s.readDB != nil {
			if err := s.readDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing read connection: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})

	return s.closeErr
}
