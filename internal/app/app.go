package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/heartmarshall/stock-ledger/internal/adapter/sessionstore"
	"github.com/heartmarshall/stock-ledger/internal/auth"
	"github.com/heartmarshall/stock-ledger/internal/config"
	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/internal/service/announcement"
	authsvc "github.com/heartmarshall/stock-ledger/internal/service/auth"
	"github.com/heartmarshall/stock-ledger/internal/service/backup"
	"github.com/heartmarshall/stock-ledger/internal/service/inventory"
	"github.com/heartmarshall/stock-ledger/internal/service/job"
	"github.com/heartmarshall/stock-ledger/internal/service/productstore"
	"github.com/heartmarshall/stock-ledger/internal/transport/middleware"
	"github.com/heartmarshall/stock-ledger/internal/transport/rest"
)

const rateLimitSweep = time.Minute

// App holds every wired component of the service.
type App struct {
	cfg *config.Config
	log *slog.Logger

	Storage       *Storage
	Sessions      sessionstore.Store
	Products      *productstore.Store
	Inventory     *inventory.Service
	Jobs          *job.Service
	Backup        *backup.Service
	Auth          *authsvc.Service
	Announcements *announcement.Service

	redis   *redis.Client
	limiter *middleware.RateLimiter
	sched   *cron.Cron
}

// New opens storage and the session store and builds the services. Nothing
// runs until Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: logger}

	st, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.Storage = st

	if cfg.Redis.Addr != "" {
		client, err := sessionstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		a.Sessions = sessionstore.NewRedis(client)
	} else {
		logger.Warn("redis address not set, sessions are kept in memory")
		a.Sessions = sessionstore.NewMemory()
	}

	seed, err := buildSeed(cfg.Seed, cfg.Auth.BcryptCost)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Products = productstore.New(logger, st.Products, st.Users, st.Docs, seed)
	a.Inventory = inventory.NewService(logger, st.Products, st.Tx)
	a.Jobs, err = job.NewService(logger, a.Inventory, st.Products, st.Jobs, st.Docs, st.Tx, cfg.Job.SessionTTL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("job service: %w", err)
	}
	a.Backup = backup.NewService(logger, st.Products, st.Jobs, st.Docs, backup.Options{
		BatchSize: cfg.Backup.BatchSize,
		Dir:       cfg.Backup.Dir,
		Keep:      cfg.Backup.Keep,
	})
	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	a.Auth = authsvc.NewService(logger, st.Users, a.Sessions, jwt, cfg.Session)
	a.Announcements = announcement.NewService(logger, st.Announcements, a.Sessions)

	a.limiter = middleware.NewRateLimiter(rateLimitSweep)
	return a, nil
}

// buildSeed hashes the configured seed passwords. A user whose password is
// empty is not seeded.
func buildSeed(cfg config.SeedConfig, cost int) (productstore.Seed, error) {
	var seed productstore.Seed
	accounts := []struct {
		password string
		user     domain.User
	}{
		{cfg.AdminPassword, domain.User{Username: "admin", Name: "Admin", Role: domain.RoleAdmin}},
		{cfg.ManagerPassword, domain.User{Username: "encargada", Name: "Encargada", Role: domain.RoleUser}},
	}
	for _, acc := range accounts {
		if acc.password == "" {
			continue
		}
		hash, err := auth.HashPassword(acc.password, cost)
		if err != nil {
			return seed, fmt.Errorf("hash seed password for %s: %w", acc.user.Username, err)
		}
		acc.user.PasswordHash = hash
		seed.Users = append(seed.Users, acc.user)
	}

	products, err := productstore.LoadProducts(cfg.ProductsFile)
	if err != nil {
		return seed, fmt.Errorf("load seed products: %w", err)
	}
	seed.Products = products
	return seed, nil
}

// Start loads the product store and starts the scheduler. ctx bounds the
// product feed and the scheduled jobs.
func (a *App) Start(ctx context.Context) error {
	if err := a.Products.Start(ctx); err != nil {
		return fmt.Errorf("start product store: %w", err)
	}
	sched, err := a.newScheduler(ctx)
	if err != nil {
		return err
	}
	a.sched = sched
	a.sched.Start()

	a.log.InfoContext(ctx, "application started",
		slog.String("version", BuildVersion()),
		slog.String("store", a.cfg.Store.Driver),
	)
	return nil
}

// Handler builds the HTTP handler with the full middleware chain.
func (a *App) Handler() http.Handler {
	checks := map[string]rest.Pinger{"sessions": a.Sessions}
	if a.Storage.Ping != nil {
		checks["store"] = a.Storage.Ping
	}

	hs := rest.Handlers{
		Health:        rest.NewHealthHandler(BuildVersion(), checks, a.Products),
		Auth:          rest.NewAuthHandler(a.Auth, a.log),
		Products:      rest.NewProductHandler(a.Products, a.Inventory, a.log),
		History:       rest.NewHistoryHandler(a.Products, a.Backup, a.log),
		Jobs:          rest.NewJobHandler(a.Jobs, a.log),
		Admin:         rest.NewAdminHandler(a.Backup, a.cfg.Server.MaxBodyBytes, a.log),
		Announcements: rest.NewAnnouncementHandler(a.Announcements, a.log),
		LoginLimit:    a.limiter.Limit(a.cfg.Auth.LoginPerMinute),
	}

	mux := http.NewServeMux()
	hs.Register(mux)

	return middleware.Chain(
		middleware.RequestID,
		middleware.Logger(a.log),
		middleware.Recovery(a.log),
		middleware.CORS(a.cfg.CORS),
		middleware.Auth(a.Auth, a.log),
	)(mux)
}

// HTTPServer returns a server bound to the configured address.
func (a *App) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}
}

// Close stops background work and releases connections. Open usage
// sessions are flushed to the jobs collection first.
func (a *App) Close() error {
	var errs []error

	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Jobs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		if _, err := a.Jobs.FlushAll(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush sessions: %w", err))
		}
		cancel()
	}
	if a.Products != nil {
		a.Products.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.Storage != nil {
		a.Storage.Close()
	}
	return errors.Join(errs...)
}
