package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinidesk/clinidesk/internal/config"
	"github.com/clinidesk/clinidesk/internal/domain/billing"
	"github.com/clinidesk/clinidesk/internal/domain/documents"
	"github.com/clinidesk/clinidesk/internal/domain/identity"
	"github.com/clinidesk/clinidesk/internal/domain/messaging"
	"github.com/clinidesk/clinidesk/internal/domain/patient"
	"github.com/clinidesk/clinidesk/internal/domain/scheduling"
	"github.com/clinidesk/clinidesk/internal/platform/auth"
	"github.com/clinidesk/clinidesk/internal/platform/db"
	"github.com/clinidesk/clinidesk/internal/platform/middleware"
	"github.com/clinidesk/clinidesk/internal/platform/realtime"
	"github.com/clinidesk/clinidesk/pkg/chatclient"
)

// ChatStoreAdapter adapts the messaging service to the realtime hub's
// MessageStore interface, avoiding a circular import between the realtime
// and messaging packages.
type ChatStoreAdapter struct {
	svc *messaging.Service
}

// NewChatStoreAdapter creates a new adapter.
func NewChatStoreAdapter(svc *messaging.Service) *ChatStoreAdapter {
	return &ChatStoreAdapter{svc: svc}
}

// Save implements realtime.MessageStore.
func (a *ChatStoreAdapter) Save(ctx context.Context, senderID, recipientID int64, content string) (chatclient.Message, error) {
	m, err := a.svc.SaveMessage(ctx, senderID, recipientID, content)
	if err != nil {
		return chatclient.Message{}, err
	}
	return chatclient.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		SentAt:      m.SentAt,
	}, nil
}

// MarkRead implements realtime.MessageStore.
func (a *ChatStoreAdapter) MarkRead(ctx context.Context, readerID int64, messageIDs []int64) ([]realtime.ReadReceipt, error) {
	markers, err := a.svc.MarkMessagesRead(ctx, readerID, messageIDs)
	if err != nil {
		return nil, err
	}
	receipts := make([]realtime.ReadReceipt, 0, len(markers))
	for _, mk := range markers {
		receipts = append(receipts, realtime.ReadReceipt{
			MessageID: mk.MessageID,
			SenderID:  mk.SenderID,
			ReadAt:    mk.ReadAt,
		})
	}
	return receipts, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinidesk-server",
		Short: "CliniDesk practice dashboard API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Services
	messagingSvc := messaging.NewService(messaging.NewRepoPG(pool))
	identitySvc := identity.NewService(identity.NewRepoPG(pool))
	patientSvc := patient.NewService(patient.NewRepoPG(pool), patient.NewIntakeFormRepoPG(pool))
	schedulingSvc := scheduling.NewService(scheduling.NewRepoPG(pool))
	billingSvc := billing.NewService(billing.NewRepoPG(pool))
	documentsSvc := documents.NewService(documents.NewRepoPG(pool))

	// Realtime chat hub. The websocket handshake authenticates with a
	// token query parameter because browsers cannot set headers on
	// websocket upgrades.
	hub := realtime.NewHub(NewChatStoreAdapter(messagingSvc), logger)
	chatHandler := realtime.NewHandler(hub, func(token string) (realtime.Identity, error) {
		claims, err := auth.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			return realtime.Identity{}, err
		}
		return realtime.Identity{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}, nil
	})

	// API group: websocket first (it authenticates itself), then the
	// bearer-token REST endpoints.
	apiV1 := e.Group("/api/v1")
	chatHandler.RegisterRoutes(apiV1)

	rest := e.Group("/api/v1")
	if cfg.IsDev() {
		rest.Use(auth.DevAuthMiddleware())
	} else {
		rest.Use(auth.Middleware(cfg.JWTSecret))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	rest.Use(middleware.RateLimit(rateLimitCfg))

	messaging.NewHandler(messagingSvc).RegisterRoutes(rest)
	identity.NewHandler(identitySvc).RegisterRoutes(rest)
	patient.NewHandler(patientSvc).RegisterRoutes(rest)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(rest)
	billing.NewHandler(billingSvc).RegisterRoutes(rest)
	documents.NewHandler(documentsSvc).RegisterRoutes(rest)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
