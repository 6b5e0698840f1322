package main

import (
	"context"
	"fmt"
	"log"
	"os"

	apirest "github.com/LivSterling/skill-issued-server/api/rest"
	"github.com/LivSterling/skill-issued-server/audit"
	"github.com/LivSterling/skill-issued-server/cache"
	"github.com/LivSterling/skill-issued-server/config"
	dbadapter "github.com/LivSterling/skill-issued-server/db"
	mw "github.com/LivSterling/skill-issued-server/middleware"
	"github.com/LivSterling/skill-issued-server/model"
	"github.com/LivSterling/skill-issued-server/pubsub"
	"github.com/LivSterling/skill-issued-server/scheduler"
	"github.com/LivSterling/skill-issued-server/social"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		logger.Warn("security.jwt_secret is not set; tokens are signed with an empty key")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- PubSub ----
	ps, err := pubsub.New(cfg.PubSub)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	if cfg.PubSub.RedisAddr != "" {
		logger.Info("PubSub using redis", zap.String("addr", cfg.PubSub.RedisAddr))
	} else {
		logger.Info("PubSub running in-process")
	}

	// ---- Relationship service ----
	store := social.NewStore(db)
	svc := social.NewService(store, ps, auditSvc, logger)

	// ---- Cache + invalidation bridge ----
	core := cache.New(cache.Config{
		Capacity:    cfg.Cache.Capacity,
		EventBuffer: cfg.Cache.EventBuffer,
	}, logger)
	sc := cache.NewSocial(core, svc, cfg.Cache, cfg.Social, logger)

	bridge := cache.NewBridge(ps, sc, cfg.Social.WarmOnLogin, logger)
	bridge.Start()
	defer bridge.Stop()
	logger.Info("Cache initialized", zap.Int("capacity", cfg.Cache.Capacity))

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	sched.AddTicker("cache_sweep", cfg.Cache.SweepInterval, func() {
		if n := core.SweepExpired(); n > 0 {
			logger.Debug("swept expired cache entries", zap.Int("count", n))
		}
	})
	sched.AddTicker("block_expiry", cfg.Cache.SweepInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*cfg.Cache.SweepInterval)
		defer cancel()
		if n, err := store.PurgeExpiredBlocks(ctx); err != nil {
			logger.Warn("block expiry purge failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("purged expired blocks", zap.Int64("count", n))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, sc, cfg.Security, cfg.Social)
	profileH := apirest.NewProfileHandler(db, svc, sc)
	socialH := apirest.NewSocialHandler(db, svc, sc, cfg.Social)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)

		profilesG := api.Group("/profiles")
		profilesG.Use(mw.Auth(cfg.Security))
		profilesG.GET("/:id", profileH.Get)

		api.PUT("/profile", mw.Auth(cfg.Security), profileH.Update)

		socialG := api.Group("/social")
		socialG.Use(mw.Auth(cfg.Security))

		socialG.GET("/friends", socialH.Friends)
		socialG.POST("/friends/request", socialH.SendRequest)
		socialG.DELETE("/friends/request/:id", socialH.Cancel)
		socialG.GET("/friends/requests/incoming", socialH.IncomingRequests)
		socialG.GET("/friends/requests/outgoing", socialH.OutgoingRequests)
		socialG.POST("/friends/accept/:id", socialH.Accept)
		socialG.POST("/friends/decline/:id", socialH.Decline)
		socialG.DELETE("/friends/:id", socialH.Unfriend)

		socialG.POST("/follow/:id", socialH.Follow)
		socialG.DELETE("/follow/:id", socialH.Unfollow)
		socialG.GET("/followers", socialH.Followers)
		socialG.GET("/following", socialH.Following)

		socialG.POST("/block/:id", socialH.Block)
		socialG.DELETE("/block/:id", socialH.Unblock)
		socialG.GET("/blocked", socialH.Blocked)

		socialG.GET("/status/:id", socialH.Status)
		socialG.GET("/cache/metrics", socialH.CacheMetrics)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
