package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"pamekids-service/internal/adapters/store"
	"pamekids-service/internal/api"
	"pamekids-service/internal/config"
	"pamekids-service/internal/platform/db"
	"pamekids-service/internal/platform/logging"
	"pamekids-service/internal/services"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dbtool prepares a Postgres document store: schema, seed data, and an
// admin token for local use.
func main() {
	seed := flag.Bool("seed", true, "seed locations from SEED_PATH after creating the schema")
	token := flag.String("admin-token", "", "print an admin JWT for this subject and exit")
	flag.Parse()

	_ = godotenv.Load()

	log, err := logging.New(config.Get("LOG_LEVEL", "info"), config.Get("LOG_FORMAT", "console"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if *token != "" {
		tok, err := api.IssueAdminToken(os.Getenv("ADMIN_JWT_SECRET"), *token, 24*time.Hour)
		if err != nil {
			log.Fatal("issue admin token failed", zap.Error(err))
		}
		fmt.Println(tok)
		return
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal("open database failed", zap.Error(err))
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/locations.json")
	collection := config.Get("LOCATIONS_COLLECTION", services.DefaultLocationsCollection)
	if err := initAndSeed(ctx, log, conn, collection, seedPath, *seed); err != nil {
		log.Fatal("dbtool failed", zap.Error(err))
	}
}

func initAndSeed(ctx context.Context, log *zap.Logger, conn *sql.DB, collection, seedPath string, seed bool) error {
	log.Info("initializing database schema")
	if err := store.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	log.Info("schema ready")
	if !seed {
		return nil
	}

	log.Info("seeding locations", zap.String("path", seedPath), zap.String("collection", collection))
	n, err := services.SeedLocations(ctx, store.NewSQLDocumentStore(conn), collection, seedPath)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	log.Info("seeding complete", zap.Int("locations", n))

	return nil
}
