package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/store"
)

// deviceColumns is the column list used for SELECT statements on the devices table.
const deviceColumns = `id, status, heart_rate, spo2, battery, last_update, paired_wearer_ref`

// eventColumns is the column list used for SELECT statements on the events table.
const eventColumns = `id, device_id, type, status, actor_role, resolved_by, ts, seq`

// caregiverColumns is the column list used for SELECT statements on the caregivers table.
const caregiverColumns = `id, device_id, name, phone, priority`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryGetDevice(ctx context.Context, db executor, tenant, id string) (*model.Device, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE tenant = $1 AND id = $2`,
		tenant, id)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return d, err
}

func queryPutDevice(ctx context.Context, db executor, tenant, id string, patch store.DevicePatch) (*model.Device, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, &model.ValidationError{Errors: []model.FieldError{{Field: "status", Message: "invalid status: " + string(*patch.Status)}}}
	}

	defaults := model.DefaultVitals()
	var heartRate, spo2, battery sql.NullInt64
	if patch.Vitals != nil {
		heartRate = sql.NullInt64{Int64: int64(patch.Vitals.HeartRate), Valid: true}
		spo2 = sql.NullInt64{Int64: int64(patch.Vitals.SpO2), Valid: true}
		battery = sql.NullInt64{Int64: int64(patch.Vitals.Battery), Valid: true}
	}
	var status sql.NullString
	if patch.Status != nil {
		status = sql.NullString{String: string(*patch.Status), Valid: true}
	}
	var pairedRef sql.NullString
	if patch.PairedWearerRef != nil {
		pairedRef = sql.NullString{String: *patch.PairedWearerRef, Valid: true}
	}

	// Upsert: absent patch fields keep the stored value on update and fall
	// back to pairing defaults on insert. last_update never moves backwards.
	row := db.QueryRowContext(ctx, `
		INSERT INTO devices (
			tenant, id, status, heart_rate, spo2, battery, paired_wearer_ref, last_update
		) VALUES (
			$1, $2, COALESCE($3, $8), COALESCE($4, $9::int), COALESCE($5, $10::int), COALESCE($6, $11::int), COALESCE($7, ''), now()
		)
		ON CONFLICT (tenant, id) DO UPDATE SET
			status = COALESCE($3, devices.status),
			heart_rate = COALESCE($4, devices.heart_rate),
			spo2 = COALESCE($5, devices.spo2),
			battery = COALESCE($6, devices.battery),
			paired_wearer_ref = COALESCE($7, devices.paired_wearer_ref),
			last_update = GREATEST(devices.last_update, now())
		RETURNING `+deviceColumns,
		tenant, id,
		status, heartRate, spo2, battery, pairedRef,
		string(model.StatusSafe), defaults.HeartRate, defaults.SpO2, defaults.Battery,
	)

	d, err := scanDevice(row)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateDevice(d); err != nil {
		return nil, err
	}
	return d, nil
}

func queryListDevices(ctx context.Context, db executor, tenant string) ([]*model.Device, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE tenant = $1 ORDER BY id ASC`,
		tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*model.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func queryAppendEvent(ctx context.Context, db executor, tenant string, e *model.Event) error {
	// ts and seq are server-assigned; RETURNING feeds them back so the
	// caller can publish the stored form.
	row := db.QueryRowContext(ctx, `
		INSERT INTO events (tenant, id, device_id, type, status, actor_role, resolved_by, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ts, seq`,
		tenant, e.ID, e.DeviceID, string(e.Type), string(e.Status), string(e.ActorRole), e.ResolvedBy,
	)
	return row.Scan(&e.Timestamp, &e.Seq)
}

func queryListEvents(ctx context.Context, db executor, tenant string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE tenant = $1 ORDER BY seq ASC`,
		tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func queryPutCaregiver(ctx context.Context, db executor, tenant string, c *model.Caregiver) error {
	if err := model.ValidateCaregiver(c); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO caregivers (tenant, id, device_id, name, phone, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant, id) DO UPDATE SET
			device_id = $3, name = $4, phone = $5, priority = $6`,
		tenant, c.ID, c.DeviceID, c.Name, c.Phone, c.Priority,
	)
	if isUniqueViolation(err) {
		return store.ErrConflict
	}
	return err
}

func queryRemoveCaregiver(ctx context.Context, db executor, tenant, deviceID, id string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM caregivers WHERE tenant = $1 AND device_id = $2 AND id = $3`,
		tenant, deviceID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryListCaregivers(ctx context.Context, db executor, tenant, deviceID string) ([]*model.Caregiver, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+caregiverColumns+` FROM caregivers WHERE tenant = $1 AND device_id = $2 ORDER BY priority ASC`,
		tenant, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var caregivers []*model.Caregiver
	for rows.Next() {
		c, err := scanCaregiver(rows)
		if err != nil {
			return nil, err
		}
		caregivers = append(caregivers, c)
	}
	return caregivers, rows.Err()
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (the per-device priority index).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
