package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"farmfresh/internal/config"
	"farmfresh/internal/http/handlers"
	applog "farmfresh/internal/log"
	"farmfresh/internal/repos"
	"farmfresh/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.SeedDemo {
		if err := repos.SeedDemo(db); err != nil {
			log.Fatal(err)
		}
	}

	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	media, err := repos.NewMediaRepo(mediaDir)
	if err != nil {
		log.Fatal(err)
	}

	// Idempotency guard for order creation is only on with Redis.
	var idem services.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[warn] redis %s unreachable, idempotency guard off: %v", cfg.RedisAddr, err)
		} else {
			idem = repos.NewIdempotencyRepo(rdb)
			log.Printf("[redis] idempotency guard on %s", cfg.RedisAddr)
		}
		cancel()
	}

	authSvc := services.NewAuthService(repos.NewUserRepo(db), cfg.JWTSecret, cfg.TokenTTL, services.SystemClock{})

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	// Global body size guard; product images ride in multipart bodies.
	app.Server().MaxRequestBodySize = 5 << 20 // 5 MiB

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(string(c.Request().URI().Path()), "/uploads/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "message": "Too many requests, retry soon"})
		},
	}))

	// ---------- Uploaded images ----------
	log.Printf("[static] /uploads -> %s", mediaDir)
	app.Get("/uploads/*", handlers.Uploads(media))

	// ---------- API ----------
	deps := handlers.NewDeps(db, cfg, authSvc, media, idem)
	loginLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "message": "Too many attempts. Please try again later."})
		},
	})
	deps.Mount(app.Group("/api"), loginLimiter)

	// Health & 404
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "message": "API is working", "time": time.Now().UTC().Format(time.RFC3339)})
	})
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Route not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
