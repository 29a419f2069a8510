package postgres

import (
	"context"
	"database/sql"

	"github.com/nandanugg/geotrack/module/tracking/domain"
	"github.com/nandanugg/geotrack/module/tracking/internal/repository/database"
)

var _ database.GeofenceRepository = (*GeofenceRepo)(nil)

type GeofenceRepo struct {
	db *sql.DB
}

func NewGeofenceRepo(db *sql.DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

func (r *GeofenceRepo) Insert(ctx context.Context, fence *domain.Geofence) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geofences (id, name, latitude, longitude, radius, active, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		fence.ID, fence.Name, fence.Latitude, fence.Longitude, fence.Radius, fence.Active, fence.CreatedAt,
	)
	return err
}

func (r *GeofenceRepo) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE geofences SET active = $1 WHERE id = $2`,
		active, id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrGeofenceNotFound
	}
	return nil
}

func (r *GeofenceRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM geofences WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrGeofenceNotFound
	}
	return nil
}

func (r *GeofenceRepo) GetAll(ctx context.Context) ([]domain.Geofence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude, radius, active, created_at FROM geofences ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Geofence
	for rows.Next() {
		var f domain.Geofence
		if err := rows.Scan(&f.ID, &f.Name, &f.Latitude, &f.Longitude, &f.Radius, &f.Active, &f.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}
