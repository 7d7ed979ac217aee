package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "animstory/docs"
	"animstory/internal/config"
	"animstory/internal/handler"
	"animstory/internal/handler/generation"
	"animstory/internal/pkg/cache"
	httputil "animstory/internal/pkg/http"
	"animstory/internal/provider"
	"animstory/internal/server/middleware"
	"animstory/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	redis  *cache.RedisCache
}

// New 创建服务器实例
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	// 未配置凭证时服务照常启动，生成接口统一返回 500
	credentialConfigured := cfg.AI.IsMock() || cfg.AI.APIKey != ""
	generators := &provider.Set{}
	if credentialConfigured {
		set, err := provider.NewSet(ctx, &cfg.AI)
		if err != nil {
			return nil, err
		}
		generators = set
	} else {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("AI api key not configured, generation endpoints will fail")
	}

	// 初始化 Redis (可选)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	srv := &Server{
		cfg:    cfg,
		engine: gin.New(),
		redis:  redisCache,
	}

	var resultCache service.ResultCache
	if redisCache != nil {
		resultCache = redisCache
	}
	svc := service.NewGenerationService(generators, resultCache)
	srv.setupRoutes(generation.NewHandler(svc, credentialConfigured))

	return srv, nil
}

// NewWithHandler 使用给定处理器创建服务器（测试使用）
func NewWithHandler(cfg *config.Config, h *generation.Handler) *Server {
	srv := &Server{cfg: cfg, engine: gin.New()}
	srv.setupRoutes(h)
	return srv
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(gen *generation.Handler) {
	s.engine.HandleMethodNotAllowed = true

	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS(s.cfg.Server.AllowedOrigins))

	s.engine.NoMethod(func(c *gin.Context) {
		httputil.AbortWithError(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	s.engine.NoRoute(func(c *gin.Context) {
		httputil.AbortWithError(c, http.StatusNotFound, "Not Found")
	})

	// 健康检查
	deps := map[string]handler.Pinger{}
	if s.redis != nil {
		deps["redis"] = s.redis
	}
	healthHandler := handler.NewHealthHandler(deps)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	gen.Register(s.engine)
}

// Run 启动服务器，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
