package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metervision/meter-reading-service/internal/db"
)

const (
	billingPeriodConstraint = "measurements_billing_period_key"
	uniqueViolationCode     = "23505"
)

// ErrDuplicateReading is returned when an insert collides with the
// one-reading-per-customer/type/month unique index.
var ErrDuplicateReading = errors.New("reading already exists for this billing period")

// Repository handles database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertCustomer registers the customer code if it has not been seen before.
// The insert is a single atomic statement so concurrent first submissions for
// the same code cannot race each other.
func (r *Repository) UpsertCustomer(ctx context.Context, code string) error {
	query := `
		INSERT INTO customers (code)
		VALUES ($1)
		ON CONFLICT (code) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, code); err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}

	return nil
}

// CountReadingsForPeriod counts readings for a customer, meter type and
// calendar month. Used as a cheap pre-OCR duplicate check; the unique index
// remains the authoritative guard.
func (r *Repository) CountReadingsForPeriod(ctx context.Context, customerCode string, measureType db.MeasureType, year int, month time.Month) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM measurements
		WHERE customer_code = $1
		AND measure_type = $2
		AND EXTRACT(YEAR FROM measure_datetime AT TIME ZONE 'UTC') = $3
		AND EXTRACT(MONTH FROM measure_datetime AT TIME ZONE 'UTC') = $4
	`

	var count int
	err := r.pool.QueryRow(ctx, query, customerCode, measureType, year, int(month)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings for period: %w", err)
	}

	return count, nil
}

// InsertMeasurement inserts a captured reading. A unique violation on the
// billing period index is reported as ErrDuplicateReading.
func (r *Repository) InsertMeasurement(ctx context.Context, m *db.Measurement) error {
	query := `
		INSERT INTO measurements (
			id, measure_uuid, customer_code, measure_datetime,
			measure_type, measure_value, image_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.MeasureUUID,
		m.CustomerCode,
		m.MeasureDatetime,
		m.MeasureType,
		m.MeasureValue,
		m.ImageURL,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == billingPeriodConstraint {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateReading, m.CustomerCode, m.MeasureType)
		}
		return fmt.Errorf("failed to insert measurement: %w", err)
	}

	return nil
}

// MeasurementExists reports whether a reading with the given uuid exists.
func (r *Repository) MeasurementExists(ctx context.Context, measureUUID uuid.UUID) (bool, error) {
	query := `
		SELECT 1
		FROM measurements
		WHERE measure_uuid = $1
	`

	var one int
	err := r.pool.QueryRow(ctx, query, measureUUID).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}

	return false, fmt.Errorf("failed to query measurement: %w", err)
}

// ConfirmMeasurement applies the captured->confirmed transition as a single
// conditional update. It reports whether a row was actually updated; zero
// rows means the reading is missing or already confirmed.
func (r *Repository) ConfirmMeasurement(ctx context.Context, measureUUID uuid.UUID, confirmedValue int64) (bool, error) {
	query := `
		UPDATE measurements
		SET confirmed_value = $1, confirmed = TRUE
		WHERE measure_uuid = $2 AND confirmed = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, confirmedValue, measureUUID)
	if err != nil {
		return false, fmt.Errorf("failed to confirm measurement: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListByCustomer returns the customer's readings ordered by measurement time.
// measureType narrows the result when non-nil.
func (r *Repository) ListByCustomer(ctx context.Context, customerCode string, measureType *db.MeasureType) ([]db.Measurement, error) {
	query := `
		SELECT measure_uuid, measure_datetime, measure_type, measure_value, confirmed_value, confirmed, image_url
		FROM measurements
		WHERE customer_code = $1
	`
	args := []interface{}{customerCode}

	if measureType != nil {
		query += ` AND measure_type = $2`
		args = append(args, *measureType)
	}
	query += ` ORDER BY measure_datetime`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var measurements []db.Measurement
	for rows.Next() {
		m := db.Measurement{CustomerCode: customerCode}
		if err := rows.Scan(
			&m.MeasureUUID,
			&m.MeasureDatetime,
			&m.MeasureType,
			&m.MeasureValue,
			&m.ConfirmedValue,
			&m.Confirmed,
			&m.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		measurements = append(measurements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return measurements, nil
}

// RecentValues returns the most recent reading values for a customer and
// meter type, newest first. Used for spike detection only.
func (r *Repository) RecentValues(ctx context.Context, customerCode string, measureType db.MeasureType, limit int) ([]float64, error) {
	query := `
		SELECT measure_value
		FROM measurements
		WHERE customer_code = $1 AND measure_type = $2
		ORDER BY measure_datetime DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, customerCode, measureType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent values: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var value float64
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return values, nil
}
