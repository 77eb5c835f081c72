// Package availability decides whether rooms and areas are free for a range.
package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotelbook/internal/logger"
	"hotelbook/internal/models"
)

// BookingStore loads bookings that may block a range. Implementations may
// return a superset; the checker filters by status and exact overlap.
type BookingStore interface {
	ListBlocking(ctx context.Context, kind models.PropertyKind, propertyID int64, from, to time.Time) ([]models.Booking, error)
	ListBlockingInRange(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	ListForProperty(ctx context.Context, kind models.PropertyKind, propertyID int64, from, to *time.Time) ([]models.Booking, error)
}

// PropertyStore lists properties in available status.
type PropertyStore interface {
	ListAvailableRooms(ctx context.Context) ([]models.Room, error)
	ListAvailableAreas(ctx context.Context) ([]models.Area, error)
}

// Catalog narrows the pool by free text.
type Catalog interface {
	SearchIDs(ctx context.Context, query string) (rooms []int64, areas []int64, err error)
}

// ListingCache stores listing results. It is advisory only.
type ListingCache interface {
	GetAvailability(ctx context.Context, key string, dst any) (bool, error)
	SetAvailability(ctx context.Context, key string, value any) error
}

// Listing is the free pool for one query.
type Listing struct {
	Rooms []models.Property `json:"rooms"`
	Areas []models.Property `json:"areas"`
}

type Checker struct {
	bookings   BookingStore
	properties PropertyStore
	catalog    Catalog
	cache      ListingCache
}

// NewChecker builds a checker; catalog and cache may be nil.
func NewChecker(bookings BookingStore, properties PropertyStore, catalog Catalog, cache ListingCache) *Checker {
	return &Checker{bookings: bookings, properties: properties, catalog: catalog, cache: cache}
}

// IsAvailable reports whether nothing blocks the property during requested.
func (c *Checker) IsAvailable(ctx context.Context, kind models.PropertyKind, propertyID int64, requested Interval) (bool, error) {
	if !requested.Valid() {
		return false, fmt.Errorf("invalid interval %s", requested)
	}
	existing, err := c.bookings.ListBlocking(ctx, kind, propertyID, requested.Start, requested.End)
	if err != nil {
		return false, fmt.Errorf("failed to load bookings for %s %d: %w", kind, propertyID, err)
	}
	return FirstConflict(requested, existing) == nil, nil
}

// FreeProperties returns the available-status rooms and areas with no
// blocking booking in requested, optionally filtered by a catalog query.
func (c *Checker) FreeProperties(ctx context.Context, requested Interval, query string) (*Listing, error) {
	if !requested.Valid() {
		return nil, fmt.Errorf("invalid interval %s", requested)
	}
	query = strings.TrimSpace(query)
	key := listingKey(requested, query)

	if c.cache != nil {
		var cached Listing
		hit, err := c.cache.GetAvailability(ctx, key, &cached)
		if err != nil {
			logger.WithContext(ctx).Warn("Availability cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	rooms, err := c.properties.ListAvailableRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	areas, err := c.properties.ListAvailableAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	existing, err := c.bookings.ListBlockingInRange(ctx, requested.Start, requested.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	var roomFilter, areaFilter map[int64]bool
	if query != "" && c.catalog != nil {
		roomIDs, areaIDs, err := c.catalog.SearchIDs(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("catalog search failed: %w", err)
		}
		roomFilter, areaFilter = idSet(roomIDs), idSet(areaIDs)
	}

	blocked := blockedSet(requested, existing)
	listing := &Listing{Rooms: []models.Property{}, Areas: []models.Property{}}
	for i := range rooms {
		p := rooms[i].AsProperty()
		if blocked[ref{p.Kind, p.ID}] || (roomFilter != nil && !roomFilter[p.ID]) {
			continue
		}
		listing.Rooms = append(listing.Rooms, p)
	}
	for i := range areas {
		p := areas[i].AsProperty()
		if blocked[ref{p.Kind, p.ID}] || (areaFilter != nil && !areaFilter[p.ID]) {
			continue
		}
		listing.Areas = append(listing.Areas, p)
	}

	if c.cache != nil {
		if err := c.cache.SetAvailability(ctx, key, listing); err != nil {
			logger.WithContext(ctx).Warn("Availability cache write failed", "error", err)
		}
	}
	return listing, nil
}

// Schedule lists the non-cancelled, non-rejected bookings of one property,
// optionally bounded by dates.
func (c *Checker) Schedule(ctx context.Context, kind models.PropertyKind, propertyID int64, from, to *time.Time) ([]models.Booking, error) {
	bookings, err := c.bookings.ListForProperty(ctx, kind, propertyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s %d: %w", kind, propertyID, err)
	}
	out := bookings[:0]
	for _, b := range bookings {
		if b.Status == models.StatusCancelled || b.Status == models.StatusRejected {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type ref struct {
	kind models.PropertyKind
	id   int64
}

func blockedSet(requested Interval, existing []models.Booking) map[ref]bool {
	blocked := make(map[ref]bool)
	for i := range existing {
		b := &existing[i]
		if !b.Status.BlocksInventory() || !Overlaps(requested, BookingInterval(b)) {
			continue
		}
		kind, id := b.PropertyRef()
		blocked[ref{kind, id}] = true
	}
	return blocked
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func listingKey(requested Interval, query string) string {
	return fmt.Sprintf("%s:%s:%s", requested.Start.Format(time.RFC3339), requested.End.Format(time.RFC3339), strings.ToLower(query))
}
