package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/attendance"
	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/report"
	"github.com/trezcool/registrar/core/staff"
	"github.com/trezcool/registrar/core/student"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DB             core.DB // optional, pinged by /health
		Validate       *validator.Validate
		Translator     ut.Translator
		StudentSvc     student.Service
		AttendanceSvc  attendance.Service
		PerformanceSvc performance.Service
		ReportSvc      report.Service
		StaffSvc       staff.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		sessions *sessionManager
		errors   chan error
		shutdown chan os.Signal
	}
)

// NewServer builds the HTML application server. It panics if the page templates cannot be parsed.
func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		sessions: newSessionManager(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	renderer, err := newTemplateRenderer(conf.Debug || conf.TestMode)
	if err != nil {
		panic(errors.Wrap(err, "parsing page templates"))
	}

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Renderer = renderer
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(session.Middleware(newFlashStore(conf)))
	s.app.Use(s.sessions.middleware)

	s.app.GET("/health", s.health)

	staffOnly := s.sessions.staffRequired
	registerStudentRoutes(s.app, staffOnly, s.deps)
	registerAttendanceRoutes(s.app, s.deps)
	registerPerformanceRoutes(s.app, s.deps)
	registerAdminRoutes(s.app, staffOnly, s.sessions, s.deps)
}

// Start listens on the configured address; failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) health(ctx echo.Context) error {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(ctx.Request().Context()); err != nil {
			s.deps.Logger.Error("health check: database unreachable", err)
			return ctx.String(http.StatusServiceUnavailable, "database unreachable")
		}
	}
	return ctx.String(http.StatusOK, "ok")
}
