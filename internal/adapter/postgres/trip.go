package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	pg "github.com/Temutjin2k/taxi-dispatch/pkg/postgres"
)

type TripRepo struct {
	db *pgxpool.Pool
}

func NewTripRepo(db *pgxpool.Pool) *TripRepo {
	return &TripRepo{db: db}
}

const tripColumns = `
	id, status, passenger_id, driver_id, vehicle_id,
	origin_lat, origin_lng, destination_lat, destination_lng,
	distance_km, fare,
	created_at, assigned_at, started_at, finished_at, deleted_at`

func scanTrip(row pgx.Row) (*models.Trip, error) {
	var t models.Trip
	err := row.Scan(
		&t.ID, &t.Status, &t.PassengerID, &t.DriverID, &t.VehicleID,
		&t.Origin.Latitude, &t.Origin.Longitude, &t.Destination.Latitude, &t.Destination.Longitude,
		&t.DistanceKm, &t.Fare,
		&t.CreatedAt, &t.AssignedAt, &t.StartedAt, &t.FinishedAt, &t.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TripRepo) Get(ctx context.Context, id string) (*models.Trip, error) {
	const op = "TripRepo.Get"
	return r.get(ctx, op, `SELECT`+tripColumns+` FROM trips WHERE id = $1`, id)
}

// GetForUpdate reads the trip and locks its row until the surrounding transaction ends.
func (r *TripRepo) GetForUpdate(ctx context.Context, id string) (*models.Trip, error) {
	const op = "TripRepo.GetForUpdate"
	return r.get(ctx, op, `SELECT`+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, id)
}

func (r *TripRepo) get(ctx context.Context, op, query, id string) (*models.Trip, error) {
	t, err := scanTrip(TxorDB(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrTripNotFound
		}
		return nil, storeErr(op, err)
	}
	return t, nil
}

// MarkAssigned binds the driver and stamps assigned_at with the server clock.
// The requested/unassigned guard is repeated in the WHERE clause.
func (r *TripRepo) MarkAssigned(ctx context.Context, tripID, driverID string) (time.Time, error) {
	const op = "TripRepo.MarkAssigned"
	query := `
		UPDATE trips
		SET driver_id = $2, status = $3, assigned_at = now()
		WHERE id = $1 AND status = $4 AND driver_id IS NULL
		RETURNING assigned_at`

	var assignedAt time.Time
	err := TxorDB(ctx, r.db).QueryRow(ctx, query, tripID, driverID, types.TripAssigned, types.TripRequested).Scan(&assignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%s: %w", op, types.ErrTripAlreadyAssigned)
		}
		return time.Time{}, storeErr(op, err)
	}
	return assignedAt.UTC(), nil
}

func (r *TripRepo) Create(ctx context.Context, t *models.Trip) (*models.Trip, error) {
	const op = "TripRepo.Create"
	query := `
		INSERT INTO trips (id, status, passenger_id, origin_lat, origin_lng, destination_lat, destination_lng, distance_km, fare)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := TxorDB(ctx, r.db).QueryRow(ctx, query,
		t.ID, t.Status, t.PassengerID,
		t.Origin.Latitude, t.Origin.Longitude,
		t.Destination.Latitude, t.Destination.Longitude,
		t.DistanceKm, t.Fare,
	).Scan(&t.CreatedAt)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%s: duplicate id %q: %w", op, t.ID, types.ErrInvalidInput)
		}
		return nil, storeErr(op, err)
	}
	return t, nil
}

// ListRequested returns a page of requested, not deleted trips ordered by created_at.
func (r *TripRepo) ListRequested(ctx context.Context, filters models.Filters) ([]*models.Trip, models.Metadata, error) {
	const op = "TripRepo.ListRequested"
	direction := "ASC"
	if filters.NewestFirst() {
		direction = "DESC"
	}
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM trips
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY created_at %s, id ASC
		LIMIT $2 OFFSET $3`, tripColumns, direction)

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, types.TripRequested, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, storeErr(op, err)
	}
	defer rows.Close()

	var (
		total int
		trips = make([]*models.Trip, 0, filters.Limit())
	)
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(
			&total,
			&t.ID, &t.Status, &t.PassengerID, &t.DriverID, &t.VehicleID,
			&t.Origin.Latitude, &t.Origin.Longitude, &t.Destination.Latitude, &t.Destination.Longitude,
			&t.DistanceKm, &t.Fare,
			&t.CreatedAt, &t.AssignedAt, &t.StartedAt, &t.FinishedAt, &t.DeletedAt,
		); err != nil {
			return nil, models.Metadata{}, storeErr(op, err)
		}
		trips = append(trips, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, storeErr(op, err)
	}

	return trips, models.NewMetadata(total, filters), nil
}

// Upsert writes every column of t, keeping created_at when the trip already exists.
func (r *TripRepo) Upsert(ctx context.Context, t *models.Trip) error {
	const op = "TripRepo.Upsert"
	query := `
		INSERT INTO trips (id, status, passenger_id, driver_id, vehicle_id,
		                   origin_lat, origin_lng, destination_lat, destination_lng,
		                   distance_km, fare, created_at, assigned_at, started_at, finished_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, now()), $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
		    status = EXCLUDED.status, passenger_id = EXCLUDED.passenger_id,
		    driver_id = EXCLUDED.driver_id, vehicle_id = EXCLUDED.vehicle_id,
		    origin_lat = EXCLUDED.origin_lat, origin_lng = EXCLUDED.origin_lng,
		    destination_lat = EXCLUDED.destination_lat, destination_lng = EXCLUDED.destination_lng,
		    distance_km = EXCLUDED.distance_km, fare = EXCLUDED.fare,
		    assigned_at = EXCLUDED.assigned_at, started_at = EXCLUDED.started_at,
		    finished_at = EXCLUDED.finished_at, deleted_at = EXCLUDED.deleted_at`

	var createdAt *time.Time
	if !t.CreatedAt.IsZero() {
		createdAt = &t.CreatedAt
	}

	_, err := TxorDB(ctx, r.db).Exec(ctx, query,
		t.ID, t.Status, t.PassengerID, t.DriverID, t.VehicleID,
		t.Origin.Latitude, t.Origin.Longitude,
		t.Destination.Latitude, t.Destination.Longitude,
		t.DistanceKm, t.Fare, createdAt, t.AssignedAt, t.StartedAt, t.FinishedAt, t.DeletedAt,
	)
	if err != nil {
		return storeErr(op, err)
	}
	return nil
}
