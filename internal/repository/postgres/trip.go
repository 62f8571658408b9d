package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/repository"
)

// tripColumns is the column list shared by all trip SELECTs, in scanTrip
// order.
const tripColumns = `id, passenger_id, passenger_name, passenger_phone,
	driver_id, driver_name, driver_phone,
	origin_label, origin_lat, origin_lng,
	destination_label, destination_lat, destination_lng,
	departure_time, seats, price_per_seat, total_cost, notes,
	driver_lat, driver_lng, driver_loc_at,
	status, cancel_reason, created_at, updated_at`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	args := append([]any{trip.ID, trip.PassengerID, trip.PassengerName, trip.PassengerPhone},
		tripWriteArgs(trip)...)

	_, err := r.q.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetOpen retrieves all PENDING trips, oldest first.
func (r *TripRepository) GetOpen(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE status = $1 ORDER BY created_at ASC`
	return r.queryTrips(ctx, query, domain.TripStatusPending)
}

// GetAll retrieves all trips, newest first.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY created_at DESC LIMIT 100`
	return r.queryTrips(ctx, query)
}

// GetActiveByDriverID retrieves the trip a driver is currently assigned
// to, if any. Returns nil without error when no active trip exists.
func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = $1 AND status NOT IN ($2, $3)
		LIMIT 1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, driverID, domain.TripStatusCompleted, domain.TripStatusCancelled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return trip, nil
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET passenger_name = $1, passenger_phone = $2,
			driver_id = $3, driver_name = $4, driver_phone = $5,
			origin_label = $6, origin_lat = $7, origin_lng = $8,
			destination_label = $9, destination_lat = $10, destination_lng = $11,
			departure_time = $12, seats = $13, price_per_seat = $14, total_cost = $15, notes = $16,
			driver_lat = $17, driver_lng = $18, driver_loc_at = $19,
			status = $20, cancel_reason = $21, created_at = $22, updated_at = $23
		WHERE id = $24
	`

	args := append([]any{trip.PassengerName, trip.PassengerPhone}, tripWriteArgs(trip)...)
	args = append(args, trip.ID)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// queryTrips runs a multi-row trip query.
func (r *TripRepository) queryTrips(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// tripWriteArgs marshals the trip fields shared by Create and Update,
// starting at driver_id, with optional fields mapped to SQL NULLs.
func tripWriteArgs(trip *domain.Trip) []any {
	var driverID, driverName, driverPhone sql.NullString
	if trip.Driver != nil {
		driverID = sql.NullString{String: trip.Driver.ID, Valid: true}
		driverName = sql.NullString{String: trip.Driver.Name, Valid: true}
		driverPhone = sql.NullString{String: trip.Driver.Phone, Valid: true}
	}

	var driverLat, driverLng sql.NullFloat64
	var driverLocAt sql.NullTime
	if trip.DriverLocation != nil {
		driverLat = sql.NullFloat64{Float64: trip.DriverLocation.Point.Lat, Valid: true}
		driverLng = sql.NullFloat64{Float64: trip.DriverLocation.Point.Lng, Valid: true}
		driverLocAt = sql.NullTime{Time: trip.DriverLocation.At, Valid: true}
	}

	var cancelReason sql.NullString
	if trip.CancelReason != "" {
		cancelReason = sql.NullString{String: trip.CancelReason, Valid: true}
	}

	return []any{
		driverID, driverName, driverPhone,
		trip.Origin.Label, trip.Origin.Point.Lat, trip.Origin.Point.Lng,
		trip.Destination.Label, trip.Destination.Point.Lat, trip.Destination.Point.Lng,
		trip.DepartureTime, trip.Seats, int64(trip.PricePerSeat), int64(trip.TotalCost), trip.Notes,
		driverLat, driverLng, driverLocAt,
		trip.Status, cancelReason, trip.CreatedAt, trip.UpdatedAt,
	}
}

// scanTrip reads one trip row in tripColumns order.
func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var driverID, driverName, driverPhone sql.NullString
	var driverLat, driverLng sql.NullFloat64
	var driverLocAt sql.NullTime
	var cancelReason sql.NullString
	var pricePerSeat, totalCost int64

	err := row.Scan(
		&trip.ID,
		&trip.PassengerID,
		&trip.PassengerName,
		&trip.PassengerPhone,
		&driverID,
		&driverName,
		&driverPhone,
		&trip.Origin.Label,
		&trip.Origin.Point.Lat,
		&trip.Origin.Point.Lng,
		&trip.Destination.Label,
		&trip.Destination.Point.Lat,
		&trip.Destination.Point.Lng,
		&trip.DepartureTime,
		&trip.Seats,
		&pricePerSeat,
		&totalCost,
		&trip.Notes,
		&driverLat,
		&driverLng,
		&driverLocAt,
		&trip.Status,
		&cancelReason,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	trip.PricePerSeat = domain.Money(pricePerSeat)
	trip.TotalCost = domain.Money(totalCost)

	if driverID.Valid {
		trip.Driver = &domain.DriverRef{
			ID:    driverID.String,
			Name:  driverName.String,
			Phone: driverPhone.String,
		}
	}
	if driverLat.Valid && driverLng.Valid {
		trip.DriverLocation = &domain.TrackPoint{
			Point: geo.Point{Lat: driverLat.Float64, Lng: driverLng.Float64},
			At:    driverLocAt.Time,
		}
	}
	if cancelReason.Valid {
		trip.CancelReason = cancelReason.String
	}

	return &trip, nil
}
