package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;unique" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	Location  string    `gorm:"size:255" json:"location,omitempty"`
	Photo     string    `gorm:"size:512" json:"photo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Following []User    `gorm:"many2many:user_follows;joinForeignKey:FollowerID;joinReferences:FolloweeID" json:"-"`
	Followers []User    `gorm:"many2many:user_follows;joinForeignKey:FolloweeID;joinReferences:FollowerID" json:"-"`
}

// BeforeSave hashes the password before saving to the database
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password != "" && !isBcryptHash(u.Password) {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// ValidatePassword checks if the provided password matches the stored hash
func (u *User) ValidatePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// isBcryptHash guards against double-hashing when a user row is re-saved
// by profile updates.
func isBcryptHash(s string) bool {
	return len(s) == 60 && (s[:4] == "$2a$" || s[:4] == "$2b$" || s[:4] == "$2y$")
}
