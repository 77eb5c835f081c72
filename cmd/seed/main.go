package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"hotelbook/internal/config"
	"hotelbook/internal/database"
	"hotelbook/internal/logger"
	"hotelbook/internal/models"
	"hotelbook/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	roomCount     = flag.Int("rooms", 12, "Number of rooms to ensure exist")
	staffUser     = flag.String("staff-user", "frontdesk", "Username of the staff account")
	staffPassword = flag.String("staff-password", os.Getenv("SEED_STAFF_PASSWORD"), "Password of the staff account (env SEED_STAFF_PASSWORD)")
	dryRun        = flag.Bool("dry-run", false, "Show what would be created without making changes")
)

var roomTypes = []struct {
	name      string
	bed       string
	price     int
	maxGuests int
}{
	{"Standard", "double", 1500, 2},
	{"Deluxe", "queen", 2500, 3},
	{"Family", "twin", 3500, 5},
	{"Suite", "king", 5000, 4},
}

var areas = []models.Area{
	{Name: "Garden Pavilion", Capacity: 80, PricePerHour: "800.00", Description: "Open-air pavilion for receptions"},
	{Name: "Function Hall", Capacity: 150, PricePerHour: "1500.00", Description: "Air-conditioned hall with stage"},
	{Name: "Pool Side", Capacity: 40, PricePerHour: "600.00", Description: "Poolside deck for small parties"},
}

type Seeder struct {
	db    *database.DB
	repos *repository.Repositories
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()
	log.Info("Starting seeder", "rooms", *roomCount, "dry_run", *dryRun)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	s := &Seeder{db: db, repos: repository.NewRepositories(db)}
	ctx := context.Background()

	if err := s.seedRooms(ctx, *roomCount); err != nil {
		logger.Fatal("Failed to seed rooms", "error", err)
	}
	if err := s.seedAreas(ctx); err != nil {
		logger.Fatal("Failed to seed areas", "error", err)
	}
	if err := s.seedStaff(ctx, *staffUser, *staffPassword); err != nil {
		logger.Fatal("Failed to seed staff account", "error", err)
	}

	log.Info("Seeding completed")
}

func (s *Seeder) seedRooms(ctx context.Context, want int) error {
	existing, err := s.repos.Properties.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}
	if len(existing) >= want {
		logger.Get().Info("Rooms already seeded, skipping", "existing", len(existing))
		return nil
	}

	missing := want - len(existing)
	if *dryRun {
		logger.Get().Info("[DRY RUN] Would create rooms", "count", missing)
		return nil
	}

	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		rooms := s.repos.Properties.WithTx(tx)
		for i := 0; i < missing; i++ {
			n := len(existing) + i
			kind := roomTypes[rand.Intn(len(roomTypes))]
			room := &models.Room{
				Name:        fmt.Sprintf("Room %d%02d", n/10+1, n%10+1),
				RoomType:    kind.name,
				BedType:     kind.bed,
				Status:      models.PropertyAvailable,
				Price:       fmt.Sprintf("%d.00", kind.price),
				MaxGuests:   kind.maxGuests,
				Description: fmt.Sprintf("%s room with %s bed", kind.name, kind.bed),
			}
			if err := rooms.CreateRoom(ctx, room); err != nil {
				return fmt.Errorf("failed to create %s: %w", room.Name, err)
			}
		}
		logger.Get().Info("Created rooms", "count", missing)
		return nil
	})
}

func (s *Seeder) seedAreas(ctx context.Context) error {
	if *dryRun {
		logger.Get().Info("[DRY RUN] Would upsert areas", "count", len(areas))
		return nil
	}
	for i := range areas {
		area := areas[i]
		area.Status = models.PropertyAvailable
		if err := s.repos.Properties.CreateArea(ctx, &area); err != nil {
			return fmt.Errorf("failed to create %s: %w", area.Name, err)
		}
	}
	logger.Get().Info("Upserted areas", "count", len(areas))
	return nil
}

func (s *Seeder) seedStaff(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	existing, err := s.repos.Users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", username, err)
	}
	if existing != nil {
		logger.Get().Info("Staff account exists, skipping", "username", username)
		return nil
	}
	if password == "" {
		return fmt.Errorf("staff password is required to create %s", username)
	}
	if *dryRun {
		logger.Get().Info("[DRY RUN] Would create staff account", "username", username)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    "Front",
		LastName:     "Desk",
		Role:         models.RoleStaff,
		IsActive:     true,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create %s: %w", username, err)
	}
	logger.Get().Info("Created staff account", "username", username, "user_id", user.ID)
	return nil
}
