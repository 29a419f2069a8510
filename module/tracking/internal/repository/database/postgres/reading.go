package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/nandanugg/geotrack/module/tracking/domain"
	"github.com/nandanugg/geotrack/module/tracking/internal/repository/database"
)

var _ database.ReadingRepository = (*ReadingRepo)(nil)

type ReadingRepo struct {
	db *sql.DB
}

func NewReadingRepo(db *sql.DB) *ReadingRepo {
	return &ReadingRepo{db: db}
}

func (r *ReadingRepo) Insert(ctx context.Context, reading *domain.PositionReading) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO position_readings (latitude, longitude, accuracy, recorded_at) VALUES ($1, $2, $3, $4)`,
		reading.Latitude, reading.Longitude, reading.Accuracy, time.UnixMilli(reading.Timestamp),
	)
	return err
}

func (r *ReadingRepo) GetLatest(ctx context.Context) (*domain.PositionReading, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, accuracy, recorded_at FROM position_readings ORDER BY recorded_at DESC LIMIT 1`,
	)

	var reading domain.PositionReading
	var recordedAt time.Time
	if err := row.Scan(&reading.Latitude, &reading.Longitude, &reading.Accuracy, &recordedAt); err != nil {
		return nil, err
	}
	reading.Timestamp = recordedAt.UnixMilli()
	return &reading, nil
}

func (r *ReadingRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.PositionReading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT latitude, longitude, accuracy, recorded_at FROM position_readings WHERE recorded_at >= $1 AND recorded_at <= $2 ORDER BY recorded_at ASC`,
		query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.PositionReading
	for rows.Next() {
		var reading domain.PositionReading
		var recordedAt time.Time
		if err := rows.Scan(&reading.Latitude, &reading.Longitude, &reading.Accuracy, &recordedAt); err != nil {
			return nil, err
		}
		reading.Timestamp = recordedAt.UnixMilli()
		results = append(results, reading)
	}
	return results, rows.Err()
}
