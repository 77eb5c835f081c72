package cache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hotelbook/internal/config"
	"hotelbook/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix           = "hotelbook:"
	authPrefix          = keyPrefix + "auth:"
	availabilityPrefix  = keyPrefix + "availability:"
	availabilityVersion = keyPrefix + "availability:version"

	authTTL = 10 * time.Minute
)

type Client struct {
	rdb             *redis.Client
	availabilityTTL time.Duration
}

func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newWithClient(rdb, cfg.AvailabilityTTL), nil
}

func newWithClient(rdb *redis.Client, availabilityTTL time.Duration) *Client {
	if availabilityTTL <= 0 {
		availabilityTTL = 30 * time.Second
	}
	return &Client{rdb: rdb, availabilityTTL: availabilityTTL}
}

// AuthEntry is what a verified credential resolves to.
type AuthEntry struct {
	UserID int64
	Role   models.Role
}

// AuthKey derives the cache key for a credential pair. The password is
// only stored as a SHA-256 digest.
func AuthKey(username, password string) string {
	sum := sha256.Sum256([]byte(password))
	raw := fmt.Sprintf("%s:%s", strings.ToLower(username), hex.EncodeToString(sum[:]))
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

func (c *Client) GetAuth(ctx context.Context, key string) (*AuthEntry, error) {
	val, err := c.rdb.Get(ctx, authPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	id, role, ok := strings.Cut(val, ":")
	if !ok {
		return nil, fmt.Errorf("invalid auth entry in cache")
	}
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in cache: %w", err)
	}
	return &AuthEntry{UserID: userID, Role: models.Role(role)}, nil
}

func (c *Client) SetAuth(ctx context.Context, key string, entry AuthEntry) error {
	val := fmt.Sprintf("%d:%s", entry.UserID, entry.Role)
	return c.rdb.Set(ctx, authPrefix+key, val, authTTL).Err()
}

func (c *Client) version(ctx context.Context) (string, error) {
	v, err := c.rdb.Get(ctx, availabilityVersion).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

// GetAvailability loads a cached listing into dst. Entries written before
// the last version bump are never returned.
func (c *Client) GetAvailability(ctx context.Context, key string, dst any) (bool, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read availability version: %w", err)
	}

	raw, err := c.rdb.Get(ctx, availabilityPrefix+ver+":"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache lookup error: %w", err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached availability: %w", err)
	}
	return true, nil
}

func (c *Client) SetAvailability(ctx context.Context, key string, value any) error {
	ver, err := c.version(ctx)
	if err != nil {
		return fmt.Errorf("failed to read availability version: %w", err)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode availability: %w", err)
	}
	return c.rdb.Set(ctx, availabilityPrefix+ver+":"+key, raw, c.availabilityTTL).Err()
}

// BumpAvailabilityVersion invalidates every cached listing.
func (c *Client) BumpAvailabilityVersion(ctx context.Context) error {
	return c.rdb.Incr(ctx, availabilityVersion).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
