package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/FalakNet/Account/internal/audit"
	"github.com/FalakNet/Account/internal/common"
	"github.com/FalakNet/Account/internal/config"
	"github.com/FalakNet/Account/internal/handlers/api"
	"github.com/FalakNet/Account/internal/identity"
	"github.com/FalakNet/Account/internal/metrics"
	"github.com/FalakNet/Account/internal/middlewares"
	"github.com/FalakNet/Account/internal/sessions"
	"github.com/FalakNet/Account/internal/store"
	"github.com/FalakNet/Account/model"
	"github.com/FalakNet/Account/params"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/storage/redis/v3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "accounts - centralized authentication and account service"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if dbConfig.ReplicaDsn != "" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{mysql.Open(dbConfig.ReplicaDsn)},
		}))
		if err != nil {
			slog.Error("Failed to register database replica", "error", err)
			os.Exit(1)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if dbConfig.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
		}
		if dbConfig.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
		}
		if dbConfig.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(time.Duration(dbConfig.ConnMaxIdleTime) * time.Second)
		}
		if dbConfig.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Second)
		}
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
}

func mustInitIdentityVerifier(ctx context.Context, identityCfg config.IdentityConfig) identity.Verifier {
	serviceAccountJSON, err := os.ReadFile(identityCfg.ServiceAccountFile)
	if err != nil {
		slog.Error("Failed to read identity service account file", "file", identityCfg.ServiceAccountFile, "error", err)
		os.Exit(1)
	}
	verifier, err := identity.NewGoogleVerifier(ctx, identityCfg.ProjectID, identityCfg.Issuer, identityCfg.JWKSUrl, serviceAccountJSON)
	if err != nil {
		slog.Error("Failed to initialize identity verifier", "error", err)
		os.Exit(1)
	}
	return verifier
}

func setupAPIRoutes(router fiber.Router, sessionService *sessions.SessionService) {
	var (
		authHandler = api.NewAuthHandler(sessionService)
		userHandler = api.NewUserHandler(sessionService)
	)

	router.Post("/verify", authHandler.PostVerify)
	router.Post("/refresh", authHandler.PostRefresh)
	router.Post("/logout", authHandler.PostLogout)

	user := router.Group("/user", middlewares.SessionAuth(sessionService))
	user.Get("/profile", userHandler.GetProfile)
	user.Put("/profile", userHandler.PutProfile)
	user.Get("/sessions", userHandler.GetSessions)
	user.Delete("/sessions/:sessionId", userHandler.DeleteSession)
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	db := mustInitDatabase(cfg.MySQL)

	var cacheStorage store.Storage
	var redisStorage *redis.Storage
	if cfg.Cache.Backend == "redis" {
		redisStorage = mustInitRedisStorage(cfg.Redis)
		cacheStorage = store.NewRedisStorage(redisStorage.Conn())
	} else {
		cacheStorage = store.NewMemoryStorage()
	}

	verifier := mustInitIdentityVerifier(ctx.Context, cfg.Identity)

	audit.Initialize(audit.NewAuditEventRepository(db))
	collector := metrics.NewCollector()

	var (
		userRepo     = sessions.NewUserRepository(db)
		sessionRepo  = sessions.NewSessionRepository(db)
		sessionCache = sessions.NewSessionCache(cacheStorage, cfg.Session.TokenSecret)
	)

	sessionService := sessions.NewSessionService(db, userRepo, sessionRepo, verifier, sessionCache, collector, sessions.Config{
		TokenSecret:        cfg.Session.TokenSecret,
		TokenMaxAge:        cfg.Session.TokenMaxAge,
		MaxSessionsPerUser: cfg.Session.MaxSessionsPerUser,
	})

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.NewErrorHandler(cfg.Production),
	})

	router.Use(recover.New())
	router.Use(requestid.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupAPIRoutes(router, sessionService)

	serviceCtx, term := context.WithCancel(ctx.Context)
	defer term()

	janitor := sessions.NewJanitor(sessionRepo, cfg.Session.CleanupInterval, cfg.Session.Retention)
	go janitor.Run(serviceCtx)

	done := make(chan struct{})
	var rdb goredis.UniversalClient
	if redisStorage != nil {
		rdb = redisStorage.Conn()
	}
	go common.StartHealthCheckServer(serviceCtx, done, rdb, db, collector.Handler())
	defer func() {
		term()
		<-done
	}()
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
