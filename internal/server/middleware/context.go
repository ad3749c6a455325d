package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/cinegraph/backend/internal/jobs"
)

// AppState holds the shared collaborators request handlers need. Jobs is nil
// when no relational database is configured; job tracking is then skipped.
type AppState struct {
	Ch           *amqp091.Channel
	Jobs         *jobs.Store
	JWTSecret    []byte
	MasterAPIKey string
}

// AppContext wraps the echo context with application state.
type AppContext struct {
	echo.Context
	App *AppState
}

// AppContextMiddleware attaches the application state to every request.
func AppContextMiddleware(app *AppState) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
