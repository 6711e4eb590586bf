package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/smallbiznis/linkpulse/internal/auth/domain"
	"github.com/smallbiznis/linkpulse/internal/auth/session"
	"github.com/smallbiznis/linkpulse/internal/config"
	obslogger "github.com/smallbiznis/linkpulse/internal/observability/logger"
	"github.com/smallbiznis/linkpulse/internal/oauth"
	"github.com/smallbiznis/linkpulse/internal/statestore"
	tokendomain "github.com/smallbiznis/linkpulse/internal/token/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(migrate),
	fx.Invoke(run),
)

// Server carries the handler dependencies.
type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	tokens   tokendomain.Service
	exchange oauth.Client
	states   statestore.Store
	users    authdomain.Repository
	sessions *session.Manager
	genID    *snowflake.Node
}

type Params struct {
	fx.In

	Engine   *gin.Engine
	Config   config.Config
	Log      *zap.Logger
	Tokens   tokendomain.Service
	Exchange oauth.Client
	States   statestore.Store
	Users    authdomain.Repository
	Sessions *session.Manager
	GenID    *snowflake.Node
}

func NewServer(p Params) *Server {
	return &Server{
		engine:   p.Engine,
		cfg:      p.Config,
		log:      p.Log.Named("server"),
		tokens:   p.Tokens,
		exchange: p.Exchange,
		states:   p.States,
		users:    p.Users,
		sessions: p.Sessions,
		genID:    p.GenID,
	}
}

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware(cfg.IsDevelopment()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerRoutes(s *Server) {
	s.RegisterAuthRoutes()
}

func (s *Server) RegisterAuthRoutes() {
	authGroup := s.engine.Group("/auth")
	authGroup.GET("/:provider", s.StartAuthorization)
	authGroup.GET("/:provider/callback", s.HandleCallback)
	authGroup.GET("/status", s.OptionalAuth(), s.AuthStatus)
	authGroup.POST("/logout", s.Logout)
	authGroup.POST("/refresh", s.AuthRequired(), s.ForceRefresh)
}

func migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(&authdomain.User{}, &tokendomain.TokenRecord{})
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Fatal("http server failed", zap.Error(err))
				}
			}()
			s.log.Info("http server listening", zap.String("addr", s.cfg.ListenAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
