package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
)

type VehicleRepo struct {
	db *pgxpool.Pool
}

func NewVehicleRepo(db *pgxpool.Pool) *VehicleRepo {
	return &VehicleRepo{db: db}
}

// VehicleMap loads every vehicle keyed by id.
func (r *VehicleRepo) VehicleMap(ctx context.Context) (models.VehicleMap, error) {
	const op = "VehicleRepo.VehicleMap"
	query := `SELECT id, unit_number, plate, brand, model, status FROM vehicles`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	vehicles := make(models.VehicleMap)
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.UnitNumber, &v.Plate, &v.Brand, &v.Model, &v.Status); err != nil {
			return nil, storeErr(op, err)
		}
		vehicles[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return vehicles, nil
}

// Upsert inserts or replaces a vehicle row. Used by the seed tool.
func (r *VehicleRepo) Upsert(ctx context.Context, v models.Vehicle) error {
	const op = "VehicleRepo.Upsert"
	query := `
		INSERT INTO vehicles (id, unit_number, plate, brand, model, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
		    unit_number = EXCLUDED.unit_number, plate = EXCLUDED.plate, brand = EXCLUDED.brand,
		    model = EXCLUDED.model, status = EXCLUDED.status`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, v.ID, v.UnitNumber, v.Plate, v.Brand, v.Model, v.Status); err != nil {
		return storeErr(op, err)
	}
	return nil
}
