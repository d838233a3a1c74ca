package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kendall-kelly/tutoring-orders-api/models"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// OrderScope restricts a listing to one student's or one teacher's orders.
// The zero value lists every order and is reserved for administrators.
type OrderScope struct {
	StudentID *uint
	TeacherID *uint
}

// Pagination describes one page of a listing
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	ItemsPerPage int   `json:"items_per_page"`
	HasNextPage  bool  `json:"has_next_page"`
	HasPrevPage  bool  `json:"has_prev_page"`
}

// OrderPage is one page of orders, newest first
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// NewPagination builds page metadata for total items split into pages of perPage
func NewPagination(total int64, page, perPage int) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: perPage,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

// ClampPage bounds page to at least 1 and pageSize to [1, MaxPageSize]
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ResolveScope decides which orders userID may list: all of them for an administrator,
// otherwise those of the user's student or teacher profile
func (s *OrderService) ResolveScope(ctx context.Context, userID uint) (OrderScope, error) {
	const op = "resolve order scope"

	isAdmin, err := s.authz.IsAdmin(ctx, userID)
	if err != nil {
		return OrderScope{}, s.fail(op, err)
	}
	if isAdmin {
		return OrderScope{}, nil
	}

	student, err := s.students.FindStudent(ctx, userID)
	if err == nil {
		return OrderScope{StudentID: &student.ID}, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return OrderScope{}, s.fail(op, err)
	}

	teacher, err := s.teachers.FindTeacherByUser(ctx, userID)
	if err == nil {
		return OrderScope{TeacherID: &teacher.ID}, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return OrderScope{}, s.fail(op, err)
	}
	return OrderScope{}, s.fail(op, errForbidden("You do not have a student or teacher profile"))
}

// ListOrders returns one page of the orders in scope that match filter, newest first.
// page and pageSize are clamped rather than rejected.
func (s *OrderService) ListOrders(ctx context.Context, scope OrderScope, filter OrderFilter, page, pageSize int) (*OrderPage, error) {
	const op = "list orders"

	if err := validateFilter(filter); err != nil {
		return nil, s.fail(op, err)
	}
	page, pageSize = ClampPage(page, pageSize)

	var total int64
	if err := s.filteredOrders(ctx, scope, filter).Count(&total).Error; err != nil {
		return nil, s.fail(op, err)
	}

	orders := []models.Order{}
	err := s.filteredOrders(ctx, scope, filter).
		Preload("Student.User").
		Preload("Teacher.User").
		Order("orders.created_at DESC, orders.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, s.fail(op, err)
	}

	return &OrderPage{Orders: orders, Pagination: NewPagination(total, page, pageSize)}, nil
}

// FindOrders returns up to limit matching orders without pagination metadata
func (s *OrderService) FindOrders(ctx context.Context, scope OrderScope, filter OrderFilter, limit int) ([]models.Order, error) {
	const op = "find orders"

	if err := validateFilter(filter); err != nil {
		return nil, s.fail(op, err)
	}

	orders := []models.Order{}
	err := s.filteredOrders(ctx, scope, filter).
		Preload("Student.User").
		Preload("Teacher.User").
		Order("orders.created_at DESC, orders.id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, s.fail(op, err)
	}
	return orders, nil
}

func validateFilter(filter OrderFilter) error {
	if err := validateStruct(filter); err != nil {
		return err
	}
	if filter.MinRate != nil && filter.MaxRate != nil && *filter.MinRate > *filter.MaxRate {
		return errValidation(FieldError{Field: "min_rate", Message: "must not exceed max_rate"})
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		return errValidation(FieldError{Field: "created_from", Message: "must not be after created_to"})
	}
	return nil
}

// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// filteredOrders builds a fresh query per call so Count and Find do not share state
func (s *OrderService) filteredOrders(ctx context.Context, scope OrderScope, f OrderFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Order{})

	if scope.StudentID != nil {
		q = q.Where("orders.student_id = ?", *scope.StudentID)
	}
	if scope.TeacherID != nil {
		q = q.Where("orders.teacher_id = ?", *scope.TeacherID)
	}

	if f.Status != nil {
		q = q.Where("orders.status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("orders.priority = ?", *f.Priority)
	}
	if f.Grade != nil {
		q = q.Where("orders.grade = ?", *f.Grade)
	}
	if f.Curriculum != nil {
		q = q.Where("orders.curriculum = ?", *f.Curriculum)
	}
	if f.SessionType != nil {
		q = q.Where("orders.session_type = ?", *f.SessionType)
	}
	if subject := strings.TrimSpace(f.Subject); subject != "" {
		q = q.Where(`LOWER(orders.subject) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(subject))+"%")
	}
	if f.CreatedFrom != nil {
		q = q.Where("orders.created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("orders.created_at <= ?", *f.CreatedTo)
	}
	// The effective rate is the agreed one once a teacher has countered
	if f.MinRate != nil {
		q = q.Where("COALESCE(orders.agreed_rate, orders.proposed_rate) >= ?", *f.MinRate)
	}
	if f.MaxRate != nil {
		q = q.Where("COALESCE(orders.agreed_rate, orders.proposed_rate) <= ?", *f.MaxRate)
	}
	return q
}
