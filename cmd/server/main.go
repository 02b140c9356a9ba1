package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"pamekids-service/internal/adapters/cache"
	"pamekids-service/internal/adapters/describe"
	"pamekids-service/internal/adapters/places"
	"pamekids-service/internal/adapters/store"
	"pamekids-service/internal/api"
	"pamekids-service/internal/config"
	"pamekids-service/internal/platform/db"
	"pamekids-service/internal/platform/firebase"
	"pamekids-service/internal/platform/kv"
	"pamekids-service/internal/platform/logging"
	"pamekids-service/internal/platform/telemetry"
	"pamekids-service/internal/ports"
	"pamekids-service/internal/services"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const serviceName = "pamekids-service"

// main is the application composition root.
// It wires concrete adapters (Firestore or Postgres, Redis, Google Places,
// OpenAI) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, log, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("close failed", zap.Error(err))
			}
		}
	}()

	var sqlDB *sql.DB
	if cfg.StoreDriver == "postgres" || cfg.CacheDriver == "postgres" {
		sqlDB, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		closers = append(closers, sqlDB.Close)
		if err := store.InitSchema(sqlDB); err != nil {
			return err
		}
	}

	docStore, err := openStore(ctx, cfg, log, sqlDB, &closers)
	if err != nil {
		return err
	}

	persist, err := openSnapshotCache(ctx, cfg, log, sqlDB, &closers)
	if err != nil {
		return err
	}

	locations := services.NewLocationCache(docStore, persist, services.LocationCacheConfig{
		Collection:   cfg.LocationsCollection,
		Version:      cfg.CacheVersion,
		FreshTTL:     cfg.CacheFreshTTL,
		RefreshAfter: cfg.CacheRefreshAfter,
		Logger:       log,
	})
	defer locations.Wait()

	admin := services.NewLocationAdmin(docStore, locations, placesProvider(cfg, log), describer(cfg, log), log)
	admin.Collection = cfg.LocationsCollection

	suggestions := services.NewSuggestionService(docStore)
	suggestions.LocationsCollection = cfg.LocationsCollection

	if cfg.AdminJWTSecret == "" {
		log.Warn("ADMIN_JWT_SECRET not set, admin routes are disabled")
	}

	router := api.NewRouter(api.Deps{
		Locations:   locations,
		Admin:       admin,
		Search:      services.NewSearchEngine(nil),
		Featured:    services.NewFeaturedService(docStore, locations),
		Blog:        services.NewBlogService(docStore),
		Suggestions: suggestions,
		Newsletter:  services.NewNewsletterService(docStore),
		JWTSecret:   cfg.AdminJWTSecret,
		Logger:      log,
	})

	// Timeouts allow for a cold cache fetch plus place/description lookups.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("store", cfg.StoreDriver),
			zap.String("cache", cfg.CacheDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, sqlDB *sql.DB, closers *[]func() error) (ports.DocumentStore, error) {
	switch cfg.StoreDriver {
	case "firestore":
		client, err := firebase.NewFirestoreClient(ctx, firebase.Credentials{
			ProjectID: cfg.FirebaseProjectID,
			JSON:      cfg.FirebaseCredentialsJSON,
			Path:      cfg.FirebaseCredentialsPath,
		})
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, client.Close)
		return store.NewFirestoreStore(client), nil
	case "postgres":
		return store.NewSQLDocumentStore(sqlDB), nil
	default:
		mem := store.NewMemoryStore()
		if strings.TrimSpace(cfg.SeedPath) != "" {
			n, err := services.SeedLocations(ctx, mem, cfg.LocationsCollection, cfg.SeedPath)
			if err != nil {
				return nil, err
			}
			log.Info("seeded in-memory store", zap.Int("locations", n), zap.String("path", cfg.SeedPath))
		}
		return mem, nil
	}
}

func openSnapshotCache(ctx context.Context, cfg *config.Config, log *zap.Logger, sqlDB *sql.DB, closers *[]func() error) (ports.SnapshotCache, error) {
	switch cfg.CacheDriver {
	case "redis":
		client, err := kv.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, client.Close)
		return cache.NewRedisSnapshotCache(client, "", 0), nil
	case "postgres":
		return cache.NewSQLSnapshotCache(sqlDB), nil
	default:
		log.Info("persistent cache tier disabled")
		return nil, nil
	}
}

func placesProvider(cfg *config.Config, log *zap.Logger) ports.PlacesProvider {
	if strings.TrimSpace(cfg.GooglePlacesAPIKey) == "" {
		log.Warn("GOOGLE_PLACES_API_KEY not set, using the mock places provider")
		return places.NewMockPlacesProvider()
	}
	p, err := places.NewGooglePlacesProvider(cfg.GooglePlacesAPIKey, cfg.GooglePlacesBaseURL)
	if err != nil {
		log.Warn("google places disabled", zap.Error(err))
		return places.NewMockPlacesProvider()
	}
	return p
}

func describer(cfg *config.Config, log *zap.Logger) ports.DescriptionGenerator {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Info("OPENAI_API_KEY not set, descriptions use the built-in template")
		return nil
	}
	g, err := describe.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	if err != nil {
		log.Warn("description generator disabled", zap.Error(err))
		return nil
	}
	return g
}
