package models

import (
	"time"

	"gorm.io/gorm"
)

// Role identifies what a user is allowed to do in the marketplace
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system (student, teacher or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"-"` // Auth0 user ID (from 'sub' claim), never serialized
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role           `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// Student is the student profile owned by a user
type Student struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;uniqueIndex" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID" json:"user"`
	Grade         *Grade      `gorm:"type:varchar(20)" json:"grade,omitempty"`
	Curriculum    *Curriculum `gorm:"type:varchar(20)" json:"curriculum,omitempty"`
	FormCompleted bool        `gorm:"not null;default:false" json:"form_completed"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName specifies the table name for the Student model
func (Student) TableName() string {
	return "students"
}

// Teacher is the teacher profile owned by a user. Only approved teachers receive orders.
type Teacher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Approved  bool      `gorm:"not null;default:false" json:"approved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Teacher model
func (Teacher) TableName() string {
	return "teachers"
}
