package repository

import (
	"context"
	"database/sql"
	"fmt"

	"hotelbook/internal/database"
	"hotelbook/internal/models"
)

// PropertyRepository reads and updates rooms and areas.
type PropertyRepository struct {
	db database.Querier
}

func NewPropertyRepository(db database.Querier) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) WithTx(tx *sql.Tx) *PropertyRepository {
	return &PropertyRepository{db: tx}
}

func propertyTable(kind models.PropertyKind) (table, nameColumn, rateColumn, capacityColumn string, err error) {
	switch kind {
	case models.PropertyRoom:
		return "rooms", "room_name", "room_price", "max_guests", nil
	case models.PropertyArea:
		return "areas", "area_name", "price_per_hour", "capacity", nil
	}
	return "", "", "", "", fmt.Errorf("unknown property kind %q", kind)
}

func (r *PropertyRepository) get(ctx context.Context, kind models.PropertyKind, id int64, lock bool) (*models.Property, error) {
	table, name, rate, capacity, err := propertyTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, %s, status, %s::text, %s, description FROM %s WHERE id = $1`, name, rate, capacity, table)
	if lock {
		query += " FOR UPDATE"
	}

	p := &models.Property{Kind: kind}
	err = r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Status, &p.Rate, &p.Capacity, &p.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PropertyRepository) Get(ctx context.Context, kind models.PropertyKind, id int64) (*models.Property, error) {
	return r.get(ctx, kind, id, false)
}

// GetForUpdate locks the property row, serializing bookings against it.
func (r *PropertyRepository) GetForUpdate(ctx context.Context, kind models.PropertyKind, id int64) (*models.Property, error) {
	return r.get(ctx, kind, id, true)
}

func (r *PropertyRepository) SetStatus(ctx context.Context, kind models.PropertyKind, id int64, status models.PropertyStatus) error {
	table, _, _, _, err := propertyTable(kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2`, table), status, id)
	return err
}

// Release returns an occupied property to available once the given booking
// no longer holds it. A property another booking is checked in to stays
// occupied, and properties under maintenance are left alone.
func (r *PropertyRepository) Release(ctx context.Context, kind models.PropertyKind, id, bookingID int64) error {
	table, _, _, _, err := propertyTable(kind)
	if err != nil {
		return err
	}
	ref := "room_id"
	if kind == models.PropertyArea {
		ref = "area_id"
	}
	query := fmt.Sprintf(`
		UPDATE %s SET status = 'available', updated_at = NOW()
		WHERE id = $1 AND status = 'occupied'
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings
		      WHERE %s = $1 AND status = 'checked_in' AND id <> $2)`, table, ref)
	_, err = r.db.ExecContext(ctx, query, id, bookingID)
	return err
}

func (r *PropertyRepository) ListAvailableRooms(ctx context.Context) ([]models.Room, error) {
	return r.listRooms(ctx, `WHERE status = 'available'`)
}

func (r *PropertyRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	return r.listRooms(ctx, "")
}

func (r *PropertyRepository) listRooms(ctx context.Context, where string) ([]models.Room, error) {
	query := `
		SELECT id, room_name, room_type, bed_type, status, room_price::text, max_guests, description, created_at, updated_at
		FROM rooms ` + where + ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []models.Room{}
	for rows.Next() {
		var room models.Room
		err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.RoomType,
			&room.BedType,
			&room.Status,
			&room.Price,
			&room.MaxGuests,
			&room.Description,
			&room.CreatedAt,
			&room.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *PropertyRepository) ListAvailableAreas(ctx context.Context) ([]models.Area, error) {
	return r.listAreas(ctx, `WHERE status = 'available'`)
}

func (r *PropertyRepository) ListAreas(ctx context.Context) ([]models.Area, error) {
	return r.listAreas(ctx, "")
}

func (r *PropertyRepository) listAreas(ctx context.Context, where string) ([]models.Area, error) {
	query := `
		SELECT id, area_name, capacity, price_per_hour::text, status, description, created_at, updated_at
		FROM areas ` + where + ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	areas := []models.Area{}
	for rows.Next() {
		var area models.Area
		err := rows.Scan(
			&area.ID,
			&area.Name,
			&area.Capacity,
			&area.PricePerHour,
			&area.Status,
			&area.Description,
			&area.CreatedAt,
			&area.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}
	return areas, rows.Err()
}

func (r *PropertyRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (room_name, room_type, bed_type, status, room_price, max_guests, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		room.Name,
		room.RoomType,
		room.BedType,
		room.Status,
		room.Price,
		room.MaxGuests,
		room.Description,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
}

func (r *PropertyRepository) CreateArea(ctx context.Context, area *models.Area) error {
	query := `
		INSERT INTO areas (area_name, capacity, price_per_hour, status, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (area_name) DO UPDATE SET updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		area.Name,
		area.Capacity,
		area.PricePerHour,
		area.Status,
		area.Description,
	).Scan(&area.ID, &area.CreatedAt, &area.UpdatedAt)
}
