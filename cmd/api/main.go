package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medicore/clinic-api/internal/cache"
	"github.com/medicore/clinic-api/internal/config"
	"github.com/medicore/clinic-api/internal/handlers"
	"github.com/medicore/clinic-api/internal/middleware"
	"github.com/medicore/clinic-api/internal/models"
	"github.com/medicore/clinic-api/internal/services"
	"github.com/medicore/clinic-api/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	cfg := config.Load()
	log.Printf("MONGO_URI: %s", cfg.MongoURI)
	log.Printf("MONGO_DATABASE: %s", cfg.MongoDatabase)
	log.Printf("API_PORT: %s", cfg.Port)
	if os.Getenv("JWT_SECRET") != "" {
		log.Println("JWT_SECRET is SET.")
	} else {
		log.Println("JWT_SECRET is NOT SET.")
	}

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)
	db := client.Database(cfg.MongoDatabase)
	log.Println("Successfully connected to MongoDB!")

	// The unique indexes back the doctor-per-user and email invariants.
	if err := store.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// --- Services ---
	st := store.New(db)
	notificationSvc := services.NewNotificationService(cfg.TextbeltKey)
	listingCache := cache.Connect(ctx, cfg.RedisAddr)

	h := handlers.NewHandler(st, notificationSvc, listingCache, cfg)

	// --- Gin Router ---
	r := gin.Default()
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// --- Routes ---
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
	}

	// Public: open-slot discovery and the contact form.
	r.GET("/appointments", h.ListOpenAppointments)
	r.POST("/contact", h.SubmitContact)

	apiRoutes := r.Group("/api")
	apiRoutes.Use(middleware.AuthMiddleware())
	{
		apiRoutes.GET("/appointments", h.ListOpenAppointments)
		apiRoutes.POST("/appointments", middleware.RequireRole(models.RoleAdmin), h.CreateAppointment)
		apiRoutes.PATCH("/appointments/:id/book", h.BookAppointment)
		apiRoutes.PATCH("/appointments/:id/cancel", h.CancelAppointment)

		apiRoutes.GET("/doctors", h.ListDoctorAppointments)
		apiRoutes.POST("/doctors", h.CreateSlot)
		apiRoutes.PUT("/doctors/:id", h.UpdateDoctorAppointment)

		apiRoutes.POST("/payment", h.ChoosePaymentMethod)
		apiRoutes.POST("/payment/:id/settle", h.SettlePayment)
		apiRoutes.GET("/payment/:id/receipt", h.PaymentReceipt)

		apiRoutes.POST("/user/feedback", h.SubmitFeedback)
		apiRoutes.GET("/user/appointments", h.ListPatientAppointments)
		apiRoutes.GET("/user/profile", h.GetCurrentUser)
		apiRoutes.PUT("/user/profile", h.UpdateCurrentUser)

		adminRoutes := apiRoutes.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		{
			adminRoutes.GET("", h.ListUsers)
			adminRoutes.PUT("", h.UpdateUserRole)
			adminRoutes.DELETE("/users/:id", h.DeleteUser)
			adminRoutes.GET("/appointments/:id", h.PatientAppointments)
		}
	}

	log.Printf("Starting server on port %s", cfg.Port)
	r.Run(":" + cfg.Port)
}
