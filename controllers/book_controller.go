package controllers

import (
	"net/http"
	"strconv"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/models"
	"github.com/gin-gonic/gin"
)

type CreateBookInput struct {
	Title        string `json:"title" binding:"required" example:"The Go Programming Language"`
	Author       string `json:"author" example:"Alan A. A. Donovan"`
	Subject      string `json:"subject" example:"Programming"`
	ClassLevel   string `json:"class_level" example:"College"`
	Location     string `json:"location" example:"Pune"`
	Contact      string `json:"contact" example:"+91 98765 43210"`
	Cover        string `json:"cover" example:"https://example.com/cover.jpg"`
	ISBN         string `json:"isbn" example:"9780134190440"`
	Genre        string `json:"genre" example:"Non-fiction"`
	BookLanguage string `json:"book_language" example:"English"`
	Condition    string `json:"condition" binding:"omitempty,oneof=New Good Acceptable" example:"Good"`
}

type UpdateBookInput struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subject      string `json:"subject"`
	ClassLevel   string `json:"class_level"`
	Location     string `json:"location"`
	Contact      string `json:"contact"`
	Cover        string `json:"cover"`
	ISBN         string `json:"isbn"`
	Genre        string `json:"genre"`
	BookLanguage string `json:"book_language"`
	Condition    string `json:"condition" binding:"omitempty,oneof=New Good Acceptable"`
}

// CreateBook godoc
// @Summary List a book for donation
// @Description Creates a new book owned by the authenticated user
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param book body CreateBookInput true "Book details"
// @Success 201 {object} models.Book "Created book"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books [post]
func CreateBook(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input CreateBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	condition := input.Condition
	if condition == "" {
		condition = "Good"
	}

	book := models.Book{
		Title:        input.Title,
		Author:       input.Author,
		Subject:      input.Subject,
		ClassLevel:   input.ClassLevel,
		Location:     input.Location,
		Contact:      input.Contact,
		Cover:        input.Cover,
		ISBN:         input.ISBN,
		Genre:        input.Genre,
		BookLanguage: input.BookLanguage,
		Condition:    condition,
		Status:       models.BookAvailable,
		OwnerID:      userID,
	}

	if err := database.DB.Create(&book).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create book"})
		return
	}

	c.JSON(http.StatusCreated, book)
}

// GetBooks godoc
// @Summary Get all books
// @Description Returns every listed book, newest first
// @Tags books
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "List of books"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books [get]
func GetBooks(c *gin.Context) {
	var books []models.Book
	if err := database.DB.
		Order("created_at DESC").
		Preload("Owner").
		Preload("Requests.User").
		Find(&books).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books})
}

// GetBook godoc
// @Summary Get a single book
// @Description Returns one book with its owner, requests and recipient
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} models.Book "Book"
// @Failure 400 {object} map[string]string "Invalid book ID"
// @Failure 404 {object} map[string]string "Book not found"
// @Router /api/books/{id} [get]
func GetBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var book models.Book
	if err := database.DB.
		Preload("Owner").
		Preload("Requests.User").
		Preload("DonatedTo").
		First(&book, bookID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary Update a book
// @Description Updates the listing details of a book owned by the caller
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param book body UpdateBookInput true "Fields to update"
// @Success 200 {object} models.Book "Updated book"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Caller is not the owner"
// @Failure 404 {object} map[string]string "Book not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books/{id} [put]
func UpdateBook(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input UpdateBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unlock := database.Locks.Lock("book", bookID)
	defer unlock()

	var book models.Book
	if err := database.DB.First(&book, bookID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	if book.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can update this book"})
		return
	}

	updates := map[string]interface{}{}
	setIfPresent := func(column, value string) {
		if value != "" {
			updates[column] = value
		}
	}
	setIfPresent("title", input.Title)
	setIfPresent("author", input.Author)
	setIfPresent("subject", input.Subject)
	setIfPresent("class_level", input.ClassLevel)
	setIfPresent("location", input.Location)
	setIfPresent("contact", input.Contact)
	setIfPresent("cover", input.Cover)
	setIfPresent("isbn", input.ISBN)
	setIfPresent("genre", input.Genre)
	setIfPresent("book_language", input.BookLanguage)
	setIfPresent("condition", input.Condition)

	if len(updates) > 0 {
		if err := database.DB.Model(&book).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update book"})
			return
		}
	}

	c.JSON(http.StatusOK, book)
}

// SearchBooks godoc
// @Summary Search books
// @Description Filters books by text query, genre, language, condition,
// @Description status, location and subject with sorting and pagination
// @Tags books
// @Accept json
// @Produce json
// @Param q query string false "Text query over title, author, ISBN and subject"
// @Param genre query string false "Genre"
// @Param language query string false "Language"
// @Param condition query string false "Condition"
// @Param status query string false "Status"
// @Param location query string false "Location substring"
// @Param subject query string false "Subject substring"
// @Param sort query string false "Sort order: recent, oldest, az, za"
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{} "Matching books and total count"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/books/search [get]
func SearchBooks(c *gin.Context) {
	query := database.DB.Model(&models.Book{})

	if q := c.Query("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?) OR LOWER(isbn) LIKE LOWER(?) OR LOWER(subject) LIKE LOWER(?)",
			pattern, pattern, pattern, pattern)
	}
	if genre := c.Query("genre"); genre != "" {
		query = query.Where("genre = ?", genre)
	}
	if language := c.Query("language"); language != "" {
		query = query.Where("book_language = ?", language)
	}
	if condition := c.Query("condition"); condition != "" {
		query = query.Where("condition = ?", condition)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("LOWER(location) LIKE LOWER(?)", "%"+location+"%")
	}
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("LOWER(subject) LIKE LOWER(?)", "%"+subject+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	order := map[string]string{
		"az":     "title ASC",
		"za":     "title DESC",
		"oldest": "created_at ASC",
		"recent": "created_at DESC",
	}[c.DefaultQuery("sort", "recent")]
	if order == "" {
		order = "created_at DESC"
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "9"))
	if err != nil || limit < 1 {
		limit = 9
	}

	var books []models.Book
	if err := query.
		Order(order).
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Owner").
		Preload("Requests.User").
		Find(&books).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books, "total": total})
}
