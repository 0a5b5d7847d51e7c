package controllers

import (
	"net/http"

	"github.com/bookdaan/bookdaan_backend/database"
	"github.com/bookdaan/bookdaan_backend/models"
	"github.com/gin-gonic/gin"
)

type UpdateProfileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	Photo    string `json:"photo"`
}

// donorBadges awards badges by completed donation count.
func donorBadges(donated int) []string {
	switch {
	case donated >= 10:
		return []string{"Gold Donor"}
	case donated >= 5:
		return []string{"Silver Donor"}
	case donated >= 1:
		return []string{"Bronze Donor"}
	default:
		return []string{}
	}
}

// GetProfile godoc
// @Summary Get a user profile
// @Description Returns a user's public profile with their donated and
// @Description requested books, followers and donor badges
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{} "Profile"
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/users/{id}/profile [get]
func GetProfile(c *gin.Context) {
	profileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.
		Preload("Followers").
		Preload("Following").
		First(&user, profileID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var donatedBooks []models.Book
	if err := database.DB.
		Where("owner_id = ? AND status = ?", profileID, models.BookDonated).
		Find(&donatedBooks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	var requestedBooks []models.Book
	if err := database.DB.
		Where("id IN (?)", database.DB.Model(&models.BookRequest{}).
			Select("book_id").
			Where("user_id = ? AND status IN ?", profileID,
				[]string{models.RequestPending, models.RequestAccepted})).
		Preload("Owner").
		Find(&requestedBooks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":            user,
		"followers":       user.Followers,
		"following":       user.Following,
		"donated_books":   donatedBooks,
		"requested_books": requestedBooks,
		"badges":          donorBadges(len(donatedBooks)),
	})
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Description Updates profile fields; only the profile owner may update it
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param profile body UpdateProfileInput true "Fields to update"
// @Success 200 {object} map[string]interface{} "Profile updated"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not the profile owner"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/users/{id} [patch]
func UpdateProfile(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	profileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if profileID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized to update this profile"})
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{}
	setIfPresent := func(column, value string) {
		if value != "" {
			updates[column] = value
		}
	}
	setIfPresent("name", input.Name)
	setIfPresent("email", input.Email)
	setIfPresent("phone", input.Phone)
	setIfPresent("bio", input.Bio)
	setIfPresent("location", input.Location)
	setIfPresent("photo", input.Photo)

	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// FollowUser godoc
// @Summary Follow a user
// @Description Adds the given user to the caller's following list
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID to follow"
// @Success 200 {object} map[string]string "Followed"
// @Failure 400 {object} map[string]string "Cannot follow yourself"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/users/{id}/follow [post]
func FollowUser(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can't follow yourself"})
		return
	}

	var me, other models.User
	if err := database.DB.First(&me, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err := database.DB.First(&other, targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := database.DB.Model(&me).Association("Following").Append(&other); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Follow failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Followed"})
}

// UnfollowUser godoc
// @Summary Unfollow a user
// @Description Removes the given user from the caller's following list
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID to unfollow"
// @Success 200 {object} map[string]string "Unfollowed"
// @Failure 400 {object} map[string]string "Cannot unfollow yourself"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/users/{id}/unfollow [post]
func UnfollowUser(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can't unfollow yourself"})
		return
	}

	var me, other models.User
	if err := database.DB.First(&me, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err := database.DB.First(&other, targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := database.DB.Model(&me).Association("Following").Delete(&other); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unfollow failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed"})
}
