package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/tutoring-orders-api/models"
	"gorm.io/gorm"
)

// StudentDirectory looks up student profiles by the id of the owning user
type StudentDirectory interface {
	FindStudent(ctx context.Context, userID uint) (*models.Student, error)
}

// TeacherDirectory looks up teacher profiles by teacher id or by owning user
type TeacherDirectory interface {
	FindTeacher(ctx context.Context, teacherID uint) (*models.Teacher, error)
	FindTeacherByUser(ctx context.Context, userID uint) (*models.Teacher, error)
}

// Authorizer answers role questions about users
type Authorizer interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// ErrProfileNotFound is returned by the directory when a profile does not exist
var ErrProfileNotFound = errors.New("profile not found")

// Directory implements StudentDirectory, TeacherDirectory and Authorizer on top of the users,
// students and teachers tables.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a gorm backed directory
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

var directoryInstance *Directory

// InitDirectory initializes the global directory
func InitDirectory(db *gorm.DB) *Directory {
	directoryInstance = NewDirectory(db)
	return directoryInstance
}

// GetDirectory returns the initialized directory instance
func GetDirectory() *Directory {
	return directoryInstance
}

// SetDirectory sets the directory instance (primarily for testing)
func SetDirectory(dir *Directory) {
	directoryInstance = dir
}

// FindStudent returns the student profile owned by userID
func (d *Directory) FindStudent(ctx context.Context, userID uint) (*models.Student, error) {
	var student models.Student
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	return &student, nil
}

// FindTeacher returns the teacher profile with the given id
func (d *Directory) FindTeacher(ctx context.Context, teacherID uint) (*models.Teacher, error) {
	var teacher models.Teacher
	err := d.db.WithContext(ctx).First(&teacher, teacherID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load teacher: %w", err)
	}
	return &teacher, nil
}

// FindTeacherByUser returns the teacher profile owned by userID
func (d *Directory) FindTeacherByUser(ctx context.Context, userID uint) (*models.Teacher, error) {
	var teacher models.Teacher
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&teacher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load teacher: %w", err)
	}
	return &teacher, nil
}

// IsAdmin reports whether the user holds the admin role
func (d *Directory) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", userID, models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check admin role: %w", err)
	}
	return count > 0, nil
}

// EnsureProfile creates the student or teacher profile matching the user's role
func (d *Directory) EnsureProfile(ctx context.Context, user *models.User) error {
	db := d.db.WithContext(ctx)
	switch user.Role {
	case models.RoleStudent:
		return db.Where(models.Student{UserID: user.ID}).FirstOrCreate(&models.Student{}).Error
	case models.RoleTeacher:
		return db.Where(models.Teacher{UserID: user.ID}).FirstOrCreate(&models.Teacher{}).Error
	}
	return nil
}

// CompleteStudentIntake stores the student's intake answers and marks the form complete,
// which allows the student to place orders
func (d *Directory) CompleteStudentIntake(ctx context.Context, userID uint, grade models.Grade, curriculum models.Curriculum) (*models.Student, error) {
	student, err := d.FindStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = d.db.WithContext(ctx).Model(student).Updates(map[string]interface{}{
		"grade":          grade,
		"curriculum":     curriculum,
		"form_completed": true,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}
	return d.FindStudent(ctx, userID)
}

// SetTeacherApproval approves or unapproves a teacher
func (d *Directory) SetTeacherApproval(ctx context.Context, teacherID uint, approved bool) (*models.Teacher, error) {
	teacher, err := d.FindTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if err := d.db.WithContext(ctx).Model(teacher).Update("approved", approved).Error; err != nil {
		return nil, fmt.Errorf("failed to update teacher: %w", err)
	}
	teacher.Approved = approved
	return teacher, nil
}
