package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/npcbrain/api/rest"
	"github.com/kasuganosora/npcbrain/api/sse"
	"github.com/kasuganosora/npcbrain/audit"
	"github.com/kasuganosora/npcbrain/cache"
	"github.com/kasuganosora/npcbrain/config"
	dbadapter "github.com/kasuganosora/npcbrain/db"
	"github.com/kasuganosora/npcbrain/game/nav"
	"github.com/kasuganosora/npcbrain/game/world"
	mw "github.com/kasuganosora/npcbrain/middleware"
	"github.com/kasuganosora/npcbrain/model"
	"github.com/kasuganosora/npcbrain/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

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

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "" {
		logger.Warn("security.jwt_secret is not set; stream tokens cannot be issued")
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

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Scheduler ----
	sched := scheduler.New(logger)

	// ---- Simulation ----
	grid := nav.NewGrid(cfg.Sim.Width, cfg.Sim.Height)
	if len(cfg.Sim.Layout) > 0 {
		if grid, err = nav.ParseGrid(cfg.Sim.Layout); err != nil {
			log.Fatalf("sim layout: %v", err)
		}
	}
	bestiary, err := config.LoadBestiary(cfg.Sim.BestiaryPath)
	if err != nil {
		log.Fatalf("bestiary: %v", err)
	}
	logger.Info("bestiary loaded",
		zap.String("path", cfg.Sim.BestiaryPath),
		zap.Int("species", len(bestiary.Species)))

	tel := world.NewTelemetry(c, pubsub, auditSvc, logger)
	arena := world.NewArena(world.ArenaConfig{
		Grid:         grid,
		TickInterval: cfg.Sim.TickInterval(),
		Seed:         cfg.Sim.Seed,
		MaxSlope:     cfg.Sim.MaxSlope,
		Observer:     tel,
	}, logger)
	tel.Attach(arena)
	spawner := world.NewSpawner(arena, sched, bestiary, logger)
	spawner.SpawnAll()
	go arena.Run()
	logger.Info("arena running",
		zap.Int("creatures", spawner.Population()),
		zap.Duration("tick", cfg.Sim.TickInterval()))

	if cfg.Sim.WatchBestiary {
		bw, err := config.WatchBestiary(cfg.Sim.BestiaryPath, spawner.SetBestiary, logger)
		if err != nil {
			logger.Warn("bestiary watch disabled", zap.Error(err))
		} else {
			defer bw.Close()
		}
	}

	// ---- Periodic Scheduler Tasks ----
	sched.AddTicker("respawn_check", 5*time.Second, spawner.CheckRespawns)
	snapEvery := time.Duration(cfg.Sim.SnapshotIntervalS) * time.Second
	if snapEvery > 0 {
		sched.AddTicker("snapshot_sync", snapEvery, func() {
			ctx, cancel := context.WithTimeout(context.Background(), snapEvery)
			defer cancel()
			if err := tel.SyncSnapshots(ctx); err != nil {
				logger.Warn("snapshot sync failed", zap.Error(err))
			}
		})
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := mw.NewRateLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(limiter.Middleware())

	agentH := apirest.NewAgentHandler(arena, c, logger)
	adminH := apirest.NewAdminHandler(apirest.AdminDeps{
		Arena:     arena,
		Spawner:   spawner,
		Telemetry: tel,
		Audit:     auditSvc,
		Cache:     c,
		Scheduler: sched,
		Security:  cfg.Security,
	}, logger)

	r.GET("/health", agentH.Health)

	api := r.Group("/api")
	{
		api.GET("/agents", agentH.List)
		api.GET("/agents/:id", agentH.Get)
		api.GET("/agents/:id/cached", agentH.Cached)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs, logger), mw.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/agents/:id/damage", adminH.Damage)
		adminG.POST("/agents/:id/sleep", adminH.Sleep)
		adminG.GET("/transitions", adminH.Transitions)
		adminG.POST("/token", adminH.IssueToken)
		adminG.DELETE("/token", adminH.RevokeToken)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/respawn", adminH.Respawn)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, logger)
	r.GET("/sse", mw.Session(cfg.Security, c, mw.ScopeStream), sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	// SSE streams end when baseCtx is cancelled at shutdown.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	// Stop producers before the sinks they feed.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	cancelBase()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	limiter.Stop()
	sched.Stop()
	arena.Stop()
	tel.Close()
	auditSvc.Stop(ctx)
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}
