package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/reposter/configs"
	"github.com/maheshrc27/reposter/internal/api/handlers"
	job "github.com/maheshrc27/reposter/internal/jobs"
	"github.com/maheshrc27/reposter/internal/queue"
	"github.com/maheshrc27/reposter/internal/repository"
	"github.com/maheshrc27/reposter/internal/scheduler"
	"github.com/maheshrc27/reposter/internal/service"
	"github.com/maheshrc27/reposter/pkg/vault"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	credentialVault, err := vault.New([]byte(cfg.SecretKey))
	if err != nil {
		log.Fatalf("Invalid vault key: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	queueClient := queue.NewClient(redisConn)
	defer queueClient.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	accountRepo := repository.NewAccountRepository(db)
	mediaPostRepo := repository.NewMediaPostRepository(db)
	scheduledPostRepo := repository.NewScheduledPostRepository(db)

	downloader := service.NewMediaDownloader(cfg.MediaDir)
	r2Service := service.NewR2Service(*cfg)
	instagramService := service.NewInstagramService(cfg.InstagramBaseURL)
	accountService := service.NewAccountService(accountRepo, credentialVault)
	mediaService := service.NewMediaService(mediaPostRepo, accountRepo, downloader, r2Service)

	engine := scheduler.NewEngine(
		accountRepo,
		mediaPostRepo,
		scheduledPostRepo,
		credentialVault,
		instagramService,
		queueClient,
		cfg.MaxRetries,
		cfg.RetryBackoff,
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	api := app.Group("/api")

	account := handlers.NewAccountHandler(accountService)
	api.Post("/accounts", account.CreateAccount)
	api.Get("/accounts", account.ListAccounts)
	api.Delete("/accounts/:id", account.RemoveAccount)
	api.Put("/accounts/:id/activate", account.ActivateAccount)
	api.Put("/accounts/:id/deactivate", account.DeactivateAccount)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/download", media.DownloadMedia)
	api.Get("/media", media.ListMedia)
	api.Get("/media/:id", media.GetMedia)

	sched := handlers.NewSchedulerHandler(engine, scheduledPostRepo)
	api.Post("/scheduler/schedule", sched.SchedulePost)
	api.Get("/scheduler/schedule/:id", sched.GetSchedule)
	api.Delete("/scheduler/schedule/:id", sched.CancelSchedule)

	// cron jobs
	cleanupJob := job.NewCleanupJob(mediaPostRepo, cfg.RetentionAge)

	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every %s", cfg.CleanupInterval), cleanupJob.Run)
	c.Start()

	// Recreate delayed tasks for schedules that were armed before the last
	// shutdown.
	if err := engine.RearmPending(context.Background()); err != nil {
		log.Printf("Failed to re-arm pending schedules: %v", err)
	}

	worker := queue.NewWorker(engine)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, worker.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
