package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	UserID       string    `json:"userid" bson:"userid"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Password     string    `json:"password,omitempty" bson:"-"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Avatar       string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a pending plaintext credential and clears it.
// It is a no-op when no new plaintext was set, so an unchanged credential is never re-hashed.
func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	if u.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(u.Password)) == nil {
		u.Password = ""
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	u.Password = ""
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// Ref returns the expanded reference for this user.
func (u *User) Ref() UserRef {
	return Expanded(u.UserID, u.Name, u.Email, u.Avatar)
}
