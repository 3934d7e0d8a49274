package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Options - зависимости HTTP сервера
type Options struct {
	Addr          string
	Debug         bool
	Logger        *zap.Logger
	Auth          *service.AuthService
	Schedules     *service.ScheduleService
	Registrations *service.RegistrationService
	Tutors        *service.TutorService
}

type Server struct {
	app           *echo.Echo
	addr          string
	logger        *zap.Logger
	auth          *service.AuthService
	schedules     *service.ScheduleService
	registrations *service.RegistrationService
	tutors        *service.TutorService
}

func NewServer(opts Options) *Server {
	s := &Server{
		app:           echo.New(),
		addr:          opts.Addr,
		logger:        opts.Logger,
		auth:          opts.Auth,
		schedules:     opts.Schedules,
		registrations: opts.Registrations,
		tutors:        opts.Tutors,
	}
	s.app.Debug = opts.Debug
	s.setup()
	return s
}

func (s *Server) setup() {
	v := newValidator()

	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Validator = v
	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.logger, func(fe validator.FieldError) string {
		return fe.Translate(v.translator)
	})

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(requestLogger(s.logger))
	s.app.Use(middleware.Recover())

	s.routes()
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	authed := s.authMiddleware()
	adminOnly := requireRole(model.RoleAdmin)
	tutorOnly := requireRole(model.RoleTutor)

	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/me", s.handleMe, authed)

	schedules := api.Group("/schedule")
	schedules.GET("", s.handleListSchedules)
	schedules.GET("/:slug", s.handleGetSchedule)
	schedules.POST("", s.handleCreateSchedule, authed, adminOnly)
	schedules.POST("/check-duplicate", s.handleCheckDuplicate, authed, adminOnly)
	schedules.PUT("/:slug", s.handleUpdateSchedule, authed, adminOnly)
	schedules.PATCH("/:slug", s.handleUpdateSchedule, authed, adminOnly)
	schedules.DELETE("/:slug", s.handleDeleteSchedule, authed, adminOnly)

	tutors := api.Group("/tutor")
	tutors.GET("", s.handleListTutors)
	tutors.GET("/:id", s.handleGetTutor)
	tutors.POST("", s.handleCreateTutor, authed, adminOnly)
	tutors.GET("/me/schedules", s.handleMySchedules, authed, tutorOnly)

	regs := api.Group("/registrations", authed)
	regs.GET("/all", s.handleListRegistrations, adminOnly)
	regs.GET("/schedule/:scheduleId", s.handleScheduleRegistrations, adminOnly)
	regs.GET("/schedule/:scheduleId/capacity", s.handleCapacity, adminOnly)
	regs.GET("/schedule/:scheduleId/export", s.handleExport, adminOnly)
	regs.GET("/tutor/schedule/:scheduleId", s.handleTutorRegistrations)
	regs.GET("/:id", s.handleGetRegistration, adminOnly)
	regs.PATCH("/:id/status", s.handleUpdateStatus, adminOnly)
	regs.PATCH("/:id/payment-status", s.handleUpdatePayment, adminOnly)
	regs.POST("/:id/payment-link", s.handleSendPaymentLink, adminOnly)
	regs.POST("/:id/send-message", s.handleSendMessage, adminOnly)
}

// Start блокируется до остановки сервера
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.addr))
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// ServeHTTP позволяет гонять сервер через httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency.Round(time.Microsecond)),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Debug("HTTP request", fields...)
			return nil
		},
	})
}
