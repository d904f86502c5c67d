package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

const userColumns = `
	id, name, email, role, availability_state, is_available,
	active_trip_id, assigned_vehicle_id, assigned_unit, unit,
	last_lat, last_lng, last_location_at, last_activity_at, busy_since,
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u          models.User
		state      *string
		lat, lng   *float64
		locationAt *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &state, &u.IsAvailable,
		&u.ActiveTripID, &u.AssignedVehicleID, &u.AssignedUnit, &u.Unit,
		&lat, &lng, &locationAt, &u.LastActivityAt, &u.BusySince,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if state != nil {
		u.AvailabilityState = types.DriverState(*state)
	}
	if lat != nil && lng != nil {
		loc := models.LastLocation{Location: models.Location{Latitude: *lat, Longitude: *lng}}
		if locationAt != nil {
			loc.RecordedAt = *locationAt
		}
		u.LastLocation = &loc
	}
	return &u, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*models.User, error) {
	const op = "UserRepo.Get"
	return r.get(ctx, op, `SELECT`+userColumns+` FROM users WHERE id = $1`, id)
}

// GetForUpdate reads the user and locks its row until the surrounding transaction ends.
func (r *UserRepo) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	const op = "UserRepo.GetForUpdate"
	return r.get(ctx, op, `SELECT`+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *UserRepo) get(ctx context.Context, op, query, id string) (*models.User, error) {
	u, err := scanUser(TxorDB(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, storeErr(op, err)
	}
	return u, nil
}

// MarkBusy flips the driver to busy on tripID, stamping busy_since with the server clock.
func (r *UserRepo) MarkBusy(ctx context.Context, driverID, tripID string) error {
	const op = "UserRepo.MarkBusy"
	query := `
		UPDATE users
		SET active_trip_id = $2, availability_state = $3, is_available = false,
		    busy_since = now(), updated_at = now()
		WHERE id = $1 AND (active_trip_id IS NULL OR active_trip_id = '')`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, tripID, types.DriverBusy)
	if err != nil {
		return storeErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDriverAlreadyBusy
	}
	return nil
}

// SetActiveTrip stores the passenger back reference.
func (r *UserRepo) SetActiveTrip(ctx context.Context, userID, tripID string) error {
	const op = "UserRepo.SetActiveTrip"
	query := `UPDATE users SET active_trip_id = $2, updated_at = now() WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, userID, tripID)
	if err != nil {
		return storeErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}
	return nil
}

// ListDrivers returns every user with the driver role.
func (r *UserRepo) ListDrivers(ctx context.Context) ([]*models.User, error) {
	const op = "UserRepo.ListDrivers"
	return r.list(ctx, op, `SELECT`+userColumns+` FROM users WHERE role = $1 ORDER BY id`, types.DriverRole)
}

// ListBusyDrivers returns drivers whose state is busy.
func (r *UserRepo) ListBusyDrivers(ctx context.Context) ([]*models.User, error) {
	const op = "UserRepo.ListBusyDrivers"
	query := `SELECT` + userColumns + ` FROM users WHERE role = $1 AND availability_state = $2 ORDER BY id`
	return r.list(ctx, op, query, types.DriverRole, types.DriverBusy)
}

// ListIdleCandidates returns free drivers still flagged as available.
// Rows without last_activity_at are included so the caller can report them.
func (r *UserRepo) ListIdleCandidates(ctx context.Context) ([]*models.User, error) {
	const op = "UserRepo.ListIdleCandidates"
	query := `SELECT` + userColumns + `
		FROM users
		WHERE role = $1
		  AND (active_trip_id IS NULL OR active_trip_id = '')
		  AND availability_state IS DISTINCT FROM $2
		  AND (availability_state = $3 OR is_available)
		ORDER BY id`
	return r.list(ctx, op, query, types.DriverRole, types.DriverOffline, types.DriverAvailable)
}

func (r *UserRepo) list(ctx context.Context, op, query string, args ...any) ([]*models.User, error) {
	rows, err := TxorDB(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return users, nil
}

// ReleaseStuck sets a driver busy since at or before cutoff to offline and clears the trip link.
// It reports false when the row no longer matches, e.g. the driver was released or reassigned.
func (r *UserRepo) ReleaseStuck(ctx context.Context, driverID string, cutoff time.Time) (bool, error) {
	const op = "UserRepo.ReleaseStuck"
	query := `
		UPDATE users
		SET active_trip_id = NULL, availability_state = $3, is_available = false,
		    busy_since = NULL, updated_at = now()
		WHERE id = $1 AND availability_state = $4 AND busy_since <= $2`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, cutoff, types.DriverOffline, types.DriverBusy)
	if err != nil {
		return false, storeErr(op, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkIdleOffline sets a free driver inactive since at or before cutoff to offline.
// It reports false when the row no longer matches.
func (r *UserRepo) MarkIdleOffline(ctx context.Context, driverID string, cutoff time.Time) (bool, error) {
	const op = "UserRepo.MarkIdleOffline"
	query := `
		UPDATE users
		SET availability_state = $3, is_available = false, updated_at = now()
		WHERE id = $1
		  AND last_activity_at <= $2
		  AND (active_trip_id IS NULL OR active_trip_id = '')
		  AND availability_state IS DISTINCT FROM $3
		  AND (availability_state = $4 OR is_available)`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, driverID, cutoff, types.DriverOffline, types.DriverAvailable)
	if err != nil {
		return false, storeErr(op, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Upsert inserts or replaces a user row. Used by the seed tool.
func (r *UserRepo) Upsert(ctx context.Context, u *models.User) error {
	const op = "UserRepo.Upsert"
	query := `
		INSERT INTO users (id, name, email, role, availability_state, is_available,
		                   active_trip_id, assigned_vehicle_id, assigned_unit, unit,
		                   last_lat, last_lng, last_location_at, last_activity_at, busy_since)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
		    name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role,
		    availability_state = EXCLUDED.availability_state, is_available = EXCLUDED.is_available,
		    active_trip_id = EXCLUDED.active_trip_id, assigned_vehicle_id = EXCLUDED.assigned_vehicle_id,
		    assigned_unit = EXCLUDED.assigned_unit, unit = EXCLUDED.unit,
		    last_lat = EXCLUDED.last_lat, last_lng = EXCLUDED.last_lng,
		    last_location_at = EXCLUDED.last_location_at, last_activity_at = EXCLUDED.last_activity_at,
		    busy_since = EXCLUDED.busy_since, updated_at = now()`

	var (
		state      *string
		lat, lng   *float64
		locationAt *time.Time
	)
	if u.AvailabilityState != "" {
		s := string(u.AvailabilityState)
		state = &s
	}
	if u.LastLocation != nil {
		lat, lng = &u.LastLocation.Latitude, &u.LastLocation.Longitude
		locationAt = &u.LastLocation.RecordedAt
	}

	_, err := TxorDB(ctx, r.db).Exec(ctx, query,
		u.ID, u.Name, u.Email, u.Role, state, u.IsAvailable,
		u.ActiveTripID, u.AssignedVehicleID, u.AssignedUnit, u.Unit,
		lat, lng, locationAt, u.LastActivityAt, u.BusySince,
	)
	if err != nil {
		return storeErr(op, err)
	}
	return nil
}
