package main

import (
	"log"
	"os"

	"github.com/bookdaan/bookdaan_backend/controllers"
	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/docs"
	"github.com/bookdaan/bookdaan_backend/middleware"
	"github.com/bookdaan/bookdaan_backend/websocket"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           BookDaan API
// @version         1.0
// @description     API Server for the BookDaan book donation platform
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize database
	database.Connect()
	database.Migrate()

	// Set up Swagger info
	docs.SwaggerInfo.Title = "BookDaan API"
	docs.SwaggerInfo.Description = "API Server for the BookDaan book donation platform"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:" + os.Getenv("PORT")
	if docs.SwaggerInfo.Host == "localhost:" {
		docs.SwaggerInfo.Host = "localhost:8080"
	}
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http"}

	// Set up router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	public := router.Group("/api")
	{
		public.POST("/register", controllers.Register)
		public.POST("/login", controllers.Login)

		public.GET("/books", controllers.GetBooks)
		public.GET("/books/search", controllers.SearchBooks)
		public.GET("/books/:id", controllers.GetBook)
		public.GET("/users/:id/profile", controllers.GetProfile)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		// Book routes
		api.POST("/books", controllers.CreateBook)
		api.PUT("/books/:id", controllers.UpdateBook)

		// Request lifecycle routes
		api.POST("/books/:id/request", controllers.RequestBook)
		api.POST("/books/:id/withdraw", controllers.WithdrawRequest)
		api.POST("/books/:id/accept/:requestId", controllers.AcceptRequest)
		api.POST("/books/:id/reject/:userId", controllers.RejectRequest)
		api.POST("/books/:id/mark-donated", controllers.MarkDonated)

		// Chat routes
		api.POST("/chats/init", controllers.InitChat)
		api.GET("/chats", controllers.GetChats)
		api.POST("/chats/:id/message", controllers.SendMessage)
		api.POST("/chats/:id/close", controllers.CloseChat)

		// Notification routes
		api.GET("/notifications", controllers.GetNotifications)
		api.PATCH("/notifications/:id/seen", controllers.MarkNotificationSeen)
		api.DELETE("/notifications/:id", controllers.DeleteNotification)
		api.DELETE("/notifications/clear/seen", controllers.ClearSeenNotifications)

		// User routes
		api.PATCH("/users/:id", controllers.UpdateProfile)
		api.POST("/users/:id/follow", controllers.FollowUser)
		api.POST("/users/:id/unfollow", controllers.UnfollowUser)
	}

	// WebSocket route
	router.GET("/ws", websocket.HandleConnection)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server running on port %s", port)
	log.Printf("Swagger documentation available at http://localhost:%s/swagger/index.html", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
