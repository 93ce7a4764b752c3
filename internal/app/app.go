package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"fitsync/internal/config"
	"fitsync/internal/database"
	"fitsync/internal/event"
	"fitsync/internal/handler"
	"fitsync/internal/middleware"
	"fitsync/internal/model"
	"fitsync/internal/repository"
	"fitsync/internal/router"
	"fitsync/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	trainerRepo := repository.NewTrainerRepository(pool)
	equipmentRepo := repository.NewEquipmentRepository(pool)
	loanRepo := repository.NewLoanRepository(pool)
	entryLogRepo := repository.NewEntryLogRepository(pool)
	slog.Info("database ready")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			db.Close()
			return nil, fmt.Errorf("failed to parse redis url: %w", parseErr)
		}
		redisClient = redis.NewClient(opts)
		if pingErr := redisClient.Ping(context.Background()).Err(); pingErr != nil {
			slog.Warn("redis unreachable, check-in dedup disabled", "error", pingErr)
		}
	}

	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, userRepo, tokenRepo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	if err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService)

	bus := event.NewBus()

	userService := service.NewUserService(userRepo, cfg.StoreTTL, bus)
	userHandler := handler.NewUserHandler(userService)
	profileService := service.NewProfileService(userRepo, cfg.StoreTTL)
	profileHandler := handler.NewProfileHandler(profileService)
	trainerService := service.NewTrainerService(trainerRepo, cfg.StoreTTL)
	trainerHandler := handler.NewTrainerHandler(trainerService)
	equipmentService := service.NewEquipmentService(equipmentRepo, cfg.StoreTTL, bus)
	equipmentHandler := handler.NewEquipmentHandler(equipmentService)
	loanService := service.NewLoanService(loanRepo, cfg.StoreTTL, bus)
	loanHandler := handler.NewLoanHandler(loanService)
	entryLogService := service.NewEntryLogService(entryLogRepo, userRepo, redisClient, cfg.CheckInWindow, cfg.StoreTTL, bus)
	entryLogHandler := handler.NewEntryLogHandler(entryLogService)

	listenCtx, listenCancel := context.WithCancel(context.Background())
	go equipmentService.Listen(listenCtx, bus)
	go loanService.Listen(listenCtx, bus)
	go sweepExpiredTokens(listenCtx, tokenRepo)
	go revokeSessionsOnDeactivation(listenCtx, bus, tokenRepo, profileService)

	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)

	appRouter := router.New(cfg, authMiddleware, metrics, router.Handlers{
		Auth:      authHandler,
		User:      userHandler,
		Profile:   profileHandler,
		Trainer:   trainerHandler,
		Equipment: equipmentHandler,
		Loan:      loanHandler,
		EntryLog:  entryLogHandler,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				listenCancel()
			},
			func() {
				if redisClient != nil {
					_ = redisClient.Close()
				}
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

// revokeSessionsOnDeactivation drops a user's refresh tokens and cached
// profile when their status is toggled off, so a deactivated account cannot
// refresh its way back in.
func revokeSessionsOnDeactivation(ctx context.Context, bus event.Bus, tokens *repository.TokenRepository, profiles *service.ProfileService) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type != event.TypeUserStatusToggled {
				continue
			}
			user, ok := e.Payload.(model.User)
			if !ok {
				continue
			}
			profiles.Invalidate(user.ID)
			if user.IsActive {
				continue
			}
			if err := tokens.RevokeAllForUser(ctx, user.ID); err != nil {
				slog.Warn("failed to revoke sessions for deactivated user", "user_id", user.ID, "error", err)
			}
		}
	}
}

// sweepExpiredTokens periodically deletes refresh tokens past their expiry
// so the table does not grow without bound.
func sweepExpiredTokens(ctx context.Context, tokens *repository.TokenRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.CleanExpired(ctx)
			if err != nil {
				slog.Warn("expired token sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired refresh tokens removed", "count", removed)
			}
		}
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
