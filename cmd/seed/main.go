package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"jobtrackr/internal/auth"
	"jobtrackr/internal/config"
	"jobtrackr/internal/db"
	"jobtrackr/internal/model"
	"jobtrackr/internal/repository"
	"jobtrackr/internal/service"
)

func main() {
	_ = godotenv.Load()

	source := flag.String("source", os.Getenv("SEED_SOURCE"), "JSON file path or http(s) URL holding an array of job applications")
	email := flag.String("email", envOr("SEED_EMAIL", "demo@jobtrackr.local"), "owner of the imported applications")
	password := flag.String("password", envOr("SEED_PASSWORD", "demo1234"), "password used when the owner has to be created")
	name := flag.String("name", envOr("SEED_NAME", "Demo User"), "name used when the owner has to be created")
	flag.Parse()

	log.Println("Starting seed script...")
	cfg := config.Load()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Connected to %s database", cfg.DBDriver)

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	userRepo := repository.NewUserRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, jwtService, auth.NewTokenStore(nil))
	jobService := service.NewJobService(repository.NewJobRepository(gormDB), nil, cfg.Timezone)

	owner, err := ensureUser(ctx, authService, userRepo, *name, *email, *password)
	if err != nil {
		log.Fatalf("Failed to prepare seed user: %v", err)
	}
	log.Printf("Seeding applications for %s (%s)", owner.Email, owner.ID)

	if *source == "" {
		log.Println("No source given, nothing to import")
		return
	}

	log.Printf("Loading applications from: %s", *source)
	inputs, err := loadApplications(*source)
	if err != nil {
		log.Fatalf("Failed to load applications: %v", err)
	}
	log.Printf("Loaded %d applications", len(inputs))

	result, err := jobService.Import(ctx, owner.ID, inputs)
	if err != nil {
		log.Fatalf("Failed to import applications: %v", err)
	}
	for _, skipped := range result.Skipped {
		log.Printf("Skipped application #%d: %s", skipped.Index, skipped.Error)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Applications imported: %d", result.Imported)
	log.Printf("  - Applications skipped: %d", len(result.Skipped))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ensureUser registers the seed owner unless the email is already taken.
func ensureUser(ctx context.Context, authService service.AuthService, users repository.UserRepository, name, email, password string) (*model.User, error) {
	result, err := authService.Register(ctx, name, email, password)
	if err == nil {
		log.Printf("Created user %s", result.User.Email)
		return result.User, nil
	}
	if !errors.Is(err, service.ErrUserAlreadyExists) {
		return nil, err
	}
	return users.FindByEmail(ctx, email)
}

// loadApplications reads a JSON array of applications from a local file or
// an http(s) URL.
func loadApplications(source string) ([]service.CreateJobInput, error) {
	var body []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch from %s: %w", source, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("source returned status code: %d", resp.StatusCode)
		}
		if body, err = io.ReadAll(resp.Body); err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
	} else {
		var err error
		if body, err = os.ReadFile(source); err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	var inputs []service.CreateJobInput
	if err := json.Unmarshal(body, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return inputs, nil
}
