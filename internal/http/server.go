package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skrasekmichael/teamup/internal/config"
	"github.com/skrasekmichael/teamup/internal/events"
	"github.com/skrasekmichael/teamup/internal/http/middleware"
	"github.com/skrasekmichael/teamup/internal/metrics"
	"github.com/skrasekmichael/teamup/internal/outbox"
	"github.com/skrasekmichael/teamup/internal/repository"
	"github.com/skrasekmichael/teamup/internal/service"
	"github.com/skrasekmichael/teamup/internal/uow"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos (MySQL)
	usersRepo := repository.NewUsersRepository(mysqlDB)
	teamsRepo := repository.NewTeamsRepository(mysqlDB)
	invitationsRepo := repository.NewInvitationsRepository(mysqlDB)
	eventsRepo := repository.NewEventsRepository(mysqlDB)
	outboxStore := repository.NewOutboxStore(mysqlDB)

	// repos (ClickHouse)
	reportsRepo := repository.NewReportsRepository(clickhouseDB)

	// domain event pipeline
	dispatcher := events.NewDispatcher(zap.L())
	manager := outbox.NewManager()
	service.NewEventHandlers(teamsRepo, usersRepo, invitationsRepo, manager).RegisterAll(dispatcher)
	factory := uow.NewFactory(mysqlDB, dispatcher, outboxStore)

	// services
	usersSvc := service.NewUsers(factory, usersRepo)
	teamsSvc := service.NewTeams(factory, teamsRepo)
	invitationsSvc := service.NewInvitations(factory, teamsRepo, invitationsRepo, usersRepo)
	eventsSvc := service.NewEvents(factory, teamsRepo, eventsRepo)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// public routes
	e.POST("/v1/users", registerUserHandler(usersSvc))
	e.POST("/v1/users/:id/activate", activateUserHandler(usersSvc))

	// middlewares
	authMW := middleware.AccessTokenMiddleware(usersRepo)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:user:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// authenticated routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/teams", createTeamHandler(teamsSvc))
	v1.PATCH("/teams/:id", renameTeamHandler(teamsSvc))
	v1.PATCH("/teams/:id/owner", changeOwnerHandler(teamsSvc))
	v1.PATCH("/teams/:id/members/:uid", setMemberRoleHandler(teamsSvc))
	v1.DELETE("/teams/:id/members/:uid", removeMemberHandler(teamsSvc))
	v1.POST("/teams/:id/invitations", inviteHandler(invitationsSvc))
	v1.POST("/invitations/:id/accept", acceptInvitationHandler(invitationsSvc))
	v1.DELETE("/invitations/:id", declineInvitationHandler(invitationsSvc))
	v1.POST("/teams/:id/events", createEventHandler(eventsSvc))
	v1.PUT("/events/:id/rsvp", rsvpHandler(eventsSvc))
	v1.GET("/events/:id/responses", listResponsesHandler(eventsRepo))
	v1.GET("/reports/notifications", listNotificationsHandler(reportsRepo))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	zap.S().Infow("http: listening", "addr", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
