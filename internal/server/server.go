package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cinegraph/backend/internal/jobs"
	"github.com/cinegraph/backend/internal/migrate"
	"github.com/cinegraph/backend/internal/queue"
	mid "github.com/cinegraph/backend/internal/server/middleware"
	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/logger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// Init wires the API server: relational schema migrations, the queue
// connection, and the echo routes.
func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var jobStore *jobs.Store
	if dbURL := util.GetEnv("DATABASE_URL"); dbURL != "" {
		if err := migrate.Up(dbURL); err != nil {
			logger.Fatal("Failed to run source schema migrations", "err", err)
		}

		pgConn, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("Unable to connect to database", "err", err)
		}
		defer pgConn.Close()
		jobStore = jobs.NewStore(pgConn)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	app := &mid.AppState{
		Ch:           ch,
		Jobs:         jobStore,
		JWTSecret:    []byte(util.GetEnv("JWT_SECRET")),
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
