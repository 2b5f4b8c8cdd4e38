package postgres

import (
	"database/sql"

	"github.com/groblegark/lifeband/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDevice scans a single row into a model.Device.
// The row must contain columns in the order defined by deviceColumns.
func scanDevice(row scannable) (*model.Device, error) {
	var d model.Device
	var pairedRef sql.NullString

	err := row.Scan(
		&d.ID,
		&d.Status,
		&d.Vitals.HeartRate,
		&d.Vitals.SpO2,
		&d.Vitals.Battery,
		&d.LastUpdate,
		&pairedRef,
	)
	if err != nil {
		return nil, err
	}
	d.PairedWearerRef = pairedRef.String
	return &d, nil
}

// scanEvent scans a single row into a model.Event.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var resolvedBy sql.NullString

	err := row.Scan(
		&e.ID,
		&e.DeviceID,
		&e.Type,
		&e.Status,
		&e.ActorRole,
		&resolvedBy,
		&e.Timestamp,
		&e.Seq,
	)
	if err != nil {
		return nil, err
	}
	e.ResolvedBy = resolvedBy.String
	return &e, nil
}

// scanCaregiver scans a single row into a model.Caregiver.
// The row must contain columns in the order defined by caregiverColumns.
func scanCaregiver(row scannable) (*model.Caregiver, error) {
	var c model.Caregiver
	var phone sql.NullString

	err := row.Scan(
		&c.ID,
		&c.DeviceID,
		&c.Name,
		&phone,
		&c.Priority,
	)
	if err != nil {
		return nil, err
	}
	c.Phone = phone.String
	return &c, nil
}
