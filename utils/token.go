package utils

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTSecret returns the signing secret from the environment.
func JWTSecret() []byte {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key" // Default secret (not recommended for production)
	}
	return []byte(jwtSecret)
}

// GenerateToken creates a new JWT token for a user
func GenerateToken(userID uint) (string, error) {
	// Create token with claims
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 24 * 7).Unix(), // Token expires in 7 days
	})

	// Sign and get the complete encoded token as a string
	tokenString, err := token.SignedString(JWTSecret())
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
