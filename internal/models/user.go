package models

import (
	"time"

	"taskmanager/internal/utils"
)

// User represents an account that owns tasks
type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SetPassword replaces the stored hash with the bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hashed
	return nil
}

// CheckPassword reports whether password is the one given to SetPassword.
func (u *User) CheckPassword(password string) bool {
	return utils.CheckPasswordHash(password, u.PasswordHash)
}
