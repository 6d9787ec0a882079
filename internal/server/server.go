package server

import (
	"log"
	"strings"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/handler"
	"marketplace/internal/middleware"
	"marketplace/internal/permission"
	"marketplace/internal/repository"
	"marketplace/internal/service"
	"marketplace/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Server {
	userRepo := repository.NewUserRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	var fileStorage storage.FileStorage
	if cfg.CloudinaryCloudName != "" || cfg.CloudinaryAPIKey != "" {
		fs, err := storage.NewCloudinaryStorage()
		if err != nil {
			log.Fatalf("failed to initialize cloudinary storage: %v", err)
		}
		fileStorage = fs
	} else {
		log.Println("cloudinary not configured, file uploads disabled")
	}

	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliSearchHost != "" {
		host := cfg.MeiliSearchHost
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient = meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}
	searchSvc := service.NewSearchService(meiliClient)

	gates := permission.NewEvaluator(nil)

	authSvc := service.NewAuthService(userRepo)
	authHandler := handler.NewAuthHandler(authSvc)

	profileSvc := service.NewProfileService(userRepo, fileStorage, gates)
	profileHandler := handler.NewProfileHandler(profileSvc)

	offerSvc := service.NewOfferService(offerRepo, fileStorage, searchSvc, gates, redisClient, cfg.RateLimitOffer)
	offerHandler := handler.NewOfferHandler(offerSvc)

	orderSvc := service.NewOrderService(orderRepo, offerRepo, userRepo, gates)
	orderHandler := handler.NewOrderHandler(orderSvc)

	reviewSvc := service.NewReviewService(reviewRepo, userRepo, gates, redisClient, cfg.RateLimitReview)
	reviewHandler := handler.NewReviewHandler(reviewSvc)

	infoSvc := service.NewInfoService(reviewRepo, userRepo, offerRepo)
	infoHandler := handler.NewInfoHandler(infoSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	api.GET("/base-info", infoHandler.BaseInfo)
	api.GET("/offers", authMiddleware.OptionalAuth(), offerHandler.List)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Offer routes
		protected.POST("/offers", offerHandler.Create)
		protected.GET("/offers/:id", offerHandler.Get)
		protected.PATCH("/offers/:id", offerHandler.Update)
		protected.DELETE("/offers/:id", offerHandler.Delete)
		protected.GET("/offerdetails/:id", offerHandler.GetDetail)

		// Order routes
		protected.GET("/orders", orderHandler.List)
		protected.POST("/orders", orderHandler.Create)
		protected.PATCH("/orders/:id", orderHandler.UpdateStatus)
		protected.DELETE("/orders/:id", orderHandler.Delete)
		protected.GET("/order-count/:business_user_id", orderHandler.InProgressCount)
		protected.GET("/completed-order-count/:business_user_id", orderHandler.CompletedCount)

		// Review routes
		protected.GET("/reviews", reviewHandler.List)
		protected.POST("/reviews", reviewHandler.Create)
		protected.PATCH("/reviews/:id", reviewHandler.Update)
		protected.DELETE("/reviews/:id", reviewHandler.Delete)

		// Profile routes
		protected.GET("/profile/:pk", profileHandler.Get)
		protected.PATCH("/profile/:pk", profileHandler.Update)
		protected.GET("/profiles/business", profileHandler.ListBusiness)
		protected.GET("/profiles/customer", profileHandler.ListCustomer)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
