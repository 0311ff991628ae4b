package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const (
	insertMissionSQL = `
INSERT INTO missions (start_time,
                      field_width,
                      field_height,
                      zone_size,
                      config)
VALUES (?, ?, ?, ?, ?)`

	endMissionSQL = `
UPDATE missions
SET end_time    = ?,
    interrupted = ?
WHERE id = ?`

	selectMissionSQL = `
SELECT id,
       start_time,
       end_time,
       field_width,
       field_height,
       zone_size,
       config,
       interrupted
FROM missions
WHERE id = ?`

	selectMissionsSQL = `
SELECT id,
       start_time,
       end_time,
       field_width,
       field_height,
       zone_size,
       config,
       interrupted
FROM missions
ORDER BY start_time`

	insertScanSQL = `
INSERT INTO scans (mission_id,
                   zone_id,
                   timestamp,
                   x,
                   y,
                   health_status,
                   ndvi,
                   moisture)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectScansSQL = `
SELECT zone_id,
       timestamp,
       x,
       y,
       health_status,
       ndvi,
       moisture
FROM scans
WHERE mission_id = ?
ORDER BY timestamp, id`

	insertSpraySQL = `
INSERT INTO sprays (mission_id,
                    action_id,
                    zone_id,
                    timestamp,
                    action_type,
                    quantity,
                    success,
                    reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectSpraysSQL = `
SELECT action_id,
       zone_id,
       timestamp,
       action_type,
       quantity,
       success,
       reason
FROM sprays
WHERE mission_id = ?
ORDER BY timestamp, id`

	insertFlightEventSQL = `
INSERT INTO flight_events (mission_id,
                           timestamp,
                           event_type,
                           description,
                           x,
                           y,
                           altitude,
                           battery_level,
                           spray_level)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertSummarySQL = `
INSERT INTO summaries (mission_id,
                       created_at,
                       summary)
VALUES (?, ?, ?)`

	selectSummarySQL = `
SELECT summary
FROM summaries
WHERE mission_id = ?`
)
