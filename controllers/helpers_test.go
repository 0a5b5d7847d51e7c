package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/middleware"
	"github.com/bookdaan/bookdaan_backend/models"
	"github.com/bookdaan/bookdaan_backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupRouter points database.DB at a fresh sqlite file and mounts the same
// routes as main.go.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.BookRequest{},
		&models.Chat{},
		&models.ChatMessage{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.DB = db

	router := gin.New()

	public := router.Group("/api")
	{
		public.POST("/register", Register)
		public.POST("/login", Login)
		public.GET("/books", GetBooks)
		public.GET("/books/search", SearchBooks)
		public.GET("/books/:id", GetBook)
		public.GET("/users/:id/profile", GetProfile)
	}

	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		api.POST("/books", CreateBook)
		api.PUT("/books/:id", UpdateBook)
		api.POST("/books/:id/request", RequestBook)
		api.POST("/books/:id/withdraw", WithdrawRequest)
		api.POST("/books/:id/accept/:requestId", AcceptRequest)
		api.POST("/books/:id/reject/:userId", RejectRequest)
		api.POST("/books/:id/mark-donated", MarkDonated)
		api.POST("/chats/init", InitChat)
		api.GET("/chats", GetChats)
		api.POST("/chats/:id/message", SendMessage)
		api.POST("/chats/:id/close", CloseChat)
		api.GET("/notifications", GetNotifications)
		api.PATCH("/notifications/:id/seen", MarkNotificationSeen)
		api.DELETE("/notifications/:id", DeleteNotification)
		api.DELETE("/notifications/clear/seen", ClearSeenNotifications)
		api.PATCH("/users/:id", UpdateProfile)
		api.POST("/users/:id/follow", FollowUser)
		api.POST("/users/:id/unfollow", UnfollowUser)
	}

	return router
}

func createUser(t *testing.T, name string) models.User {
	t.Helper()
	user := models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret123",
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func createBook(t *testing.T, owner models.User, title string) models.Book {
	t.Helper()
	book := models.Book{
		Title:   title,
		Author:  "Author",
		Status:  models.BookAvailable,
		OwnerID: owner.ID,
	}
	if err := database.DB.Create(&book).Error; err != nil {
		t.Fatalf("create book %s: %v", title, err)
	}
	return book
}

func token(t *testing.T, user models.User) string {
	t.Helper()
	tok, err := utils.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func doRequest(t *testing.T, router *gin.Engine, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func reloadBook(t *testing.T, id uint) models.Book {
	t.Helper()
	var book models.Book
	if err := database.DB.Preload("Requests").First(&book, id).Error; err != nil {
		t.Fatalf("reload book %d: %v", id, err)
	}
	return book
}

func notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	var notifications []models.Notification
	if err := database.DB.Where("user_id = ?", userID).Order("id ASC").Find(&notifications).Error; err != nil {
		t.Fatalf("notifications for %d: %v", userID, err)
	}
	return notifications
}

func bookPath(bookID uint, action string) string {
	return fmt.Sprintf("/api/books/%d/%s", bookID, action)
}

func uitoa(v uint) string {
	return fmt.Sprintf("%d", v)
}
