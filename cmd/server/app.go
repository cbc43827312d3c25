package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/platform/mail"
	"github.com/phrazzld/natours-api/internal/platform/mongodb"
	"github.com/phrazzld/natours-api/internal/platform/postgres"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
)

// stores groups the backend specific store implementations behind the store
// interfaces.
type stores struct {
	tours   store.TourStore
	users   store.UserStore
	reviews store.ReviewStore
	close   func(ctx context.Context) error
}

// openStores connects to the configured backend and prepares its schema:
// indexes for MongoDB, migrations for PostgreSQL.
func openStores(ctx context.Context, cfg config.DatabaseConfig, l *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		db, err := mongodb.Connect(ctx, cfg.URL, cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := mongodb.EnsureIndexes(ctx, db.Database(), l); err != nil {
			_ = db.Close(context.Background())
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		l.Info("Database connection established", slog.String("driver", cfg.Driver))
		return &stores{
			tours:   mongodb.NewTourStore(db.Database(), l),
			users:   mongodb.NewUserStore(db.Database(), l),
			reviews: mongodb.NewReviewStore(db.Database(), l),
			close:   db.Close,
		}, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := postgres.Migrate(db, l); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		l.Info("Database connection established", slog.String("driver", cfg.Driver))
		return &stores{
			tours:   postgres.NewTourStore(db, l),
			users:   postgres.NewUserStore(db, l),
			reviews: postgres.NewReviewStore(db, l),
			close:   func(context.Context) error { return db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// application holds the shared dependencies of the server.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	stores  *stores
	manager *auth.Manager
}

// newApplication builds the credential manager on top of the stores.
func newApplication(cfg *config.Config, l *slog.Logger, st *stores, mailer mail.Sender) (*application, error) {
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	l.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	hasher := auth.NewBcrypt(cfg.Auth.BcryptCost)
	manager, err := auth.NewManager(auth.Deps{
		Users:              st.users,
		Tokens:             jwtService,
		Hasher:             hasher,
		Verifier:           hasher,
		Mailer:             mailer,
		ResetTokenLifetime: cfg.Auth.ResetTokenLifetime(),
		AllowSignupRole:    !cfg.Server.IsProduction(),
		Logger:             l,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	return &application{config: cfg, logger: l, stores: st, manager: manager}, nil
}

// cleanup releases the store connections.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if app.stores != nil && app.stores.close != nil {
		if err := app.stores.close(ctx); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("Application shutdown completed")
}
