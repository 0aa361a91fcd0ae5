package models

import (
	"encoding/json"
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// ParseRole accepts only the closed set of roles.
func ParseRole(s string) (UserRole, bool) {
	switch UserRole(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

func (r UserRole) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r UserRole) Display() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleTeacher:
		return "Teacher"
	case RoleAdmin:
		return "Admin"
	}
	return string(r)
}

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:254"`
	Username     string   `json:"username" gorm:"not null;size:150"`
	PasswordHash string   `json:"-" gorm:"size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:10;default:student;index"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// MarshalJSON adds the human readable role label.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		RoleDisplay string `json:"role_display"`
	}{alias(u), u.Role.Display()})
}

// DefaultUsername derives a username from the local part of an email address.
func DefaultUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
