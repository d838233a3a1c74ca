// Package testutil holds the database and identity fixtures shared by package tests.
package testutil

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tutoring-orders-api/middleware"
	"github.com/kendall-kelly/tutoring-orders-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// Auth0Header names the test caller when HeaderAuth stands in for JWT validation
	Auth0Header = "X-Test-Auth0-ID"
	// RoleHeader carries the role claim of the test caller
	RoleHeader = "X-Test-Role"
)

var seq atomic.Int64

// NewTestDB opens a private in-memory SQLite database with every model migrated.
// SQLite allows one writer, so the pool is limited to a single connection.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Teacher{},
		&models.Order{},
		&models.OrderHistory{},
		&models.OrderMessage{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CreateUser inserts a user with a unique Auth0 ID and email
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()

	n := seq.Add(1)
	user := &models.User{
		Auth0ID: fmt.Sprintf("auth0|%s-%d", role, n),
		Name:    name,
		Email:   fmt.Sprintf("%s-%d@example.com", role, n),
		Role:    role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateStudent inserts a student user and profile
func CreateStudent(t *testing.T, db *gorm.DB, name string, formCompleted bool) *models.Student {
	t.Helper()

	user := CreateUser(t, db, name, models.RoleStudent)
	student := &models.Student{UserID: user.ID, FormCompleted: formCompleted}
	if formCompleted {
		grade, curriculum := models.Grade8, models.CurriculumCBSE
		student.Grade = &grade
		student.Curriculum = &curriculum
	}
	if err := db.Create(student).Error; err != nil {
		t.Fatalf("Failed to create student: %v", err)
	}
	student.User = *user
	return student
}

// CreateTeacher inserts a teacher user and profile
func CreateTeacher(t *testing.T, db *gorm.DB, name string, approved bool) *models.Teacher {
	t.Helper()

	user := CreateUser(t, db, name, models.RoleTeacher)
	teacher := &models.Teacher{UserID: user.ID, Approved: approved}
	if err := db.Create(teacher).Error; err != nil {
		t.Fatalf("Failed to create teacher: %v", err)
	}
	teacher.User = *user
	return teacher
}

// CreateAdmin inserts an administrator
func CreateAdmin(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	return CreateUser(t, db, name, models.RoleAdmin)
}

// CreateOrder inserts an order in the given status without any history rows. Use it to
// arrange states that would otherwise need a chain of transitions.
func CreateOrder(t *testing.T, db *gorm.DB, student *models.Student, teacher *models.Teacher, status models.OrderStatus) *models.Order {
	t.Helper()

	rate, sessions := 50.0, 10
	amount := 500.0
	order := &models.Order{
		StudentID:       student.ID,
		TeacherID:       teacher.ID,
		Title:           fmt.Sprintf("Algebra tutoring %d", seq.Add(1)),
		Subject:         "Mathematics",
		Grade:           models.Grade8,
		Curriculum:      models.CurriculumCBSE,
		SessionType:     models.SessionOnline,
		PreferredTime:   models.PreferredWeekdays,
		SessionsPerWeek: 2,
		SessionDuration: 60,
		TotalSessions:   &sessions,
		ProposedRate:    &rate,
		TotalAmount:     &amount,
		Status:          status,
		Priority:        models.PriorityMedium,
	}
	if err := db.Omit("Student", "Teacher").Create(order).Error; err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	return order
}

// HeaderAuth stands in for middleware.EnsureValidToken in router tests. Requests without
// the Auth0Header are rejected the way an invalid token would be.
func HeaderAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID := c.GetHeader(Auth0Header)
		if auth0ID == "" {
			c.AbortWithStatusJSON(401, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}
		middleware.SetTestIdentity(c, auth0ID, c.GetHeader(RoleHeader), "test-access-token")
		c.Next()
	}
}

// RequireTestEnvironmentOrSkip skips tests that need external infrastructure unless
// GO_ENV is test.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}
