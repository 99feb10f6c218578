package main

import (
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
	"github.com/robfig/cron"

	config "github.com/ankitjain28/gramflow/configs"
	"github.com/ankitjain28/gramflow/internal/ai"
	"github.com/ankitjain28/gramflow/internal/api/handlers"
	"github.com/ankitjain28/gramflow/internal/api/middleware"
	job "github.com/ankitjain28/gramflow/internal/jobs"
	"github.com/ankitjain28/gramflow/internal/queue"
	"github.com/ankitjain28/gramflow/internal/repository"
	"github.com/ankitjain28/gramflow/internal/service"
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

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    int(cfg.MaxUploadSize),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return origin == cfg.FrontendURL
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	accountRepo := repository.NewInstagramAccountRepository(db)
	generationRepo := repository.NewAiGenerationRepository(db)
	usageRepo := repository.NewAiUsageRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)

	storageService := service.NewR2Service(*cfg)
	instagramService := service.NewInstagramService(*cfg)
	mediaService := service.NewMediaService(*cfg, postRepo, postMediaRepo, storageService)
	postService := service.NewPostService(db, postRepo, postMediaRepo, accountRepo, mediaService)
	publisherService := service.NewPublisherService(postRepo, postMediaRepo, accountRepo, instagramService)
	accountService := service.NewAccountService(*cfg, accountRepo, instagramService)
	budgetService := service.NewBudgetService(*cfg, budgetRepo)

	chain := ai.NewChain(
		ai.NewOpenAI(cfg.Ai.OpenAIKey),
		ai.NewAnthropic(cfg.Ai.AnthropicKey),
		ai.NewGemini(cfg.Ai.GeminiKey),
		ai.NewOllama(cfg.Ai.OllamaURL),
	)
	aiService := service.NewAiService(*cfg, chain, generationRepo, usageRepo, budgetRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	account := handlers.NewAccountHandler(accountService)
	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/accounts/connect", account.ConnectAccount)
	api.Get("/accounts/connect/callback", account.ConnectCallback)
	api.Get("/accounts", account.ListAccounts)
	api.Get("/accounts/accessible", account.ListAccessibleAccounts)
	api.Post("/accounts/sync", account.SyncProfile)
	api.Post("/accounts/disconnect", account.DisconnectAccount)

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/schedule", post.SchedulePost)
	api.Post("/posts/unschedule", post.UnschedulePost)
	api.Post("/posts/duplicate", post.DuplicatePost)
	api.Post("/posts/remove", post.RemovePost)

	media := handlers.NewMediaHandler(postService, mediaService)
	api.Post("/media/upload", media.UploadMedia)
	api.Get("/media", media.ListMedia)
	api.Post("/media/remove", media.RemoveMedia)

	aiHandler := handlers.NewAiHandler(aiService)
	api.Post("/ai/generate", aiHandler.Generate)
	api.Post("/ai/caption", aiHandler.GenerateCaption)
	api.Post("/ai/hashtags", aiHandler.GenerateHashtags)
	api.Post("/ai/plan", aiHandler.GenerateContentPlan)
	api.Post("/ai/image", aiHandler.GenerateImage)
	api.Post("/ai/moderate", aiHandler.ModerateContent)
	api.Get("/ai/history", aiHandler.History)
	api.Get("/ai/usage", aiHandler.Usage)

	settings := handlers.NewSettingsHandler(budgetService)
	api.Get("/settings/budget", settings.GetBudget)
	api.Post("/settings/budget", settings.UpdateBudget)

	// cron jobs
	publishJob := job.NewPublishJob(publisherService)
	tokenRefreshJob := job.NewTokenRefreshJob(*cfg, accountRepo, instagramService)
	cleanupJob := job.NewCleanupJob(*cfg, generationRepo)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", publishJob.Run)
	c.AddFunc("@every 24h00m00s", tokenRefreshJob.Run)
	c.AddFunc("@every 24h00m00s", cleanupJob.Run)
	c.Start()

	// queue
	queueW := queue.NewQueue(publisherService)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

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
