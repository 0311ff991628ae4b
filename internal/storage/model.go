package storage

import (
	"database/sql"
	"time"
)

// Mission is a stored mission row.
type Mission struct {
	ID          int64      `json:"id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	FieldWidth  float64    `json:"field_width"`
	FieldHeight float64    `json:"field_height"`
	ZoneSize    float64    `json:"zone_size"`
	Config      *string    `json:"config,omitempty"`
	Interrupted bool       `json:"interrupted"`
}

type missionRow struct {
	ID          int64
	StartTime   time.Time
	EndTime     sql.NullTime
	FieldWidth  float64
	FieldHeight float64
	ZoneSize    float64
	Config      sql.NullString
	Interrupted bool
}

func (r *missionRow) toMission() *Mission {
	m := Mission{
		ID:          r.ID,
		StartTime:   r.StartTime,
		FieldWidth:  r.FieldWidth,
		FieldHeight: r.FieldHeight,
		ZoneSize:    r.ZoneSize,
		Interrupted: r.Interrupted,
	}
	if r.EndTime.Valid {
		t := r.EndTime.Time
		m.EndTime = &t
	}
	if r.Config.Valid {
		c := r.Config.String
		m.Config = &c
	}
	return &m
}
