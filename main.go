package main

import (
	"log"
	"net"
	"net/smtp"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"akun/internal/handlers"
	"akun/internal/mailer"
	"akun/internal/models"
	"akun/internal/repositories"
	"akun/internal/services"
	"akun/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("SMTP_ADDR", "")
	viper.SetDefault("SMTP_FROM", "no-reply@akun.local")
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	databaseDSN := viper.GetString("DATABASE_DSN")
	rabbitMQURL := viper.GetString("RABBITMQ_URL")
	smtpAddr := viper.GetString("SMTP_ADDR")
	smtpFrom := viper.GetString("SMTP_FROM")

	// --- Initialize Repository ---
	// With no DSN configured the service runs on the in-memory repository,
	// which is handy for local development.
	var userRepo repositories.UserRepository
	if databaseDSN != "" {
		db, err := gorm.Open(postgres.Open(databaseDSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		userRepo = repositories.NewGORMUserRepository(db)
		log.Println("Using PostgreSQL repository")
	} else {
		userRepo = repositories.NewMockUserRepository()
		log.Println("DATABASE_DSN not set, using in-memory repository")
	}

	// --- Initialize Mailer ---
	// Password-reset mail goes through RabbitMQ when a broker is configured;
	// a worker below consumes the queue and delivers over SMTP. Without a
	// broker the mail is just logged.
	var userMailer mailer.Mailer = mailer.NewLogMailer()
	var mqClient *rabbitmq.Client
	if rabbitMQURL != "" {
		var err error
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		userMailer = mailer.NewQueueMailer(mqClient)
	} else {
		log.Println("RABBITMQ_URL not set, logging outbound mail instead of queueing")
	}

	// --- Initialize Service and Handlers ---
	userService := services.NewUserService(userRepo, userMailer)
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	userHandler.RegisterRoutes(apiV1)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start Mail Delivery Worker ---
	// Consumes queued password-reset mail and delivers it over SMTP. With no
	// SMTP server configured the worker logs the mail, which still drains
	// the queue.
	if mqClient != nil {
		var delivery mailer.Mailer = mailer.NewLogMailer()
		if smtpAddr != "" {
			var auth smtp.Auth
			if user := viper.GetString("SMTP_USER"); user != "" {
				host := smtpAddr
				if h, _, err := net.SplitHostPort(smtpAddr); err == nil {
					host = h
				}
				auth = smtp.PlainAuth("", user, viper.GetString("SMTP_PASSWORD"), host)
			}
			delivery = mailer.NewSMTPMailer(smtpAddr, smtpFrom, auth)
		} else {
			log.Println("SMTP_ADDR not set, delivery worker will log mail")
		}

		log.Println("Starting mail delivery worker...")
		if err := mqClient.ConsumeEmails(func(msg rabbitmq.EmailMessage) error {
			return delivery.Send(msg.To, msg.Subject, msg.Body)
		}); err != nil {
			log.Printf("Failed to start mail delivery worker: %v", err)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
