package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/tutoring-orders-api/metrics"
	"github.com/kendall-kelly/tutoring-orders-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	reasonCreated          = "Order created"
	reasonCancelled        = "Cancelled by student"
	reasonTeacherAccepted  = "Teacher accepted the order"
	reasonTeacherRejected  = "Teacher rejected the order"
	reasonTeacherNegotiate = "Teacher proposed a counter rate"

	defaultSessionsPerWeek = 1
	defaultSessionDuration = 60
)

// OrderService is the order lifecycle manager. Every status change is written together with
// its history row in one transaction; business failures are returned as *OrderError.
type OrderService struct {
	db       *gorm.DB
	students StudentDirectory
	teachers TeacherDirectory
	authz    Authorizer
	log      *zap.Logger
	now      func() time.Time
}

var orderServiceInstance *OrderService

// NewOrderService creates an order service over db using the given collaborators
func NewOrderService(db *gorm.DB, students StudentDirectory, teachers TeacherDirectory, authz Authorizer, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		db:       db,
		students: students,
		teachers: teachers,
		authz:    authz,
		log:      log.Named("orders"),
		now:      time.Now,
	}
}

// InitOrderService initializes the global order service backed by dir
func InitOrderService(db *gorm.DB, dir *Directory, log *zap.Logger) *OrderService {
	orderServiceInstance = NewOrderService(db, dir, dir, dir, log)
	return orderServiceInstance
}

// GetOrderService returns the initialized order service instance
func GetOrderService() *OrderService {
	return orderServiceInstance
}

// SetOrderService sets the order service instance (primarily for testing)
func SetOrderService(service *OrderService) {
	orderServiceInstance = service
}

// CreateOrder opens a PENDING order from the student owned by studentUserID to req.TeacherID
func (s *OrderService) CreateOrder(ctx context.Context, studentUserID uint, req CreateOrderRequest) (*models.Order, error) {
	const op = "create order"

	if err := validateStruct(req); err != nil {
		return nil, s.fail(op, err)
	}
	if req.PreferredStartDate != nil && req.PreferredStartDate.Before(s.now()) {
		return nil, s.fail(op, errValidation(FieldError{Field: "preferred_start_date", Message: "must not be in the past"}))
	}

	student, err := s.students.FindStudent(ctx, studentUserID)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, s.fail(op, errNotFound("Student profile not found"))
	}
	if err != nil {
		return nil, s.fail(op, err)
	}
	teacher, err := s.teachers.FindTeacher(ctx, req.TeacherID)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, s.fail(op, errNotFound("Teacher not found"))
	}
	if err != nil {
		return nil, s.fail(op, err)
	}
	if !student.FormCompleted {
		return nil, s.fail(op, errPrecondition("Complete the student intake form before placing orders"))
	}
	if !teacher.Approved {
		return nil, s.fail(op, errPrecondition("Teacher is not approved to take orders"))
	}

	order := newOrder(student.ID, teacher.ID, req)
	order.TotalAmount = models.TotalAmountFor(order.ProposedRate, order.TotalSessions, &order.SessionDuration)
	if err := checkTotalAmount(order.TotalAmount); err != nil {
		return nil, s.fail(op, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderHistory{
			OrderID:      order.ID,
			NewStatus:    models.StatusPending,
			ChangedBy:    studentUserID,
			ChangeReason: reasonCreated,
		}).Error
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	metrics.OrdersCreated.Inc()
	s.log.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("student_id", student.ID),
		zap.Uint("teacher_id", teacher.ID))

	return s.reload(ctx, op, order.ID, false)
}

func newOrder(studentID, teacherID uint, req CreateOrderRequest) *models.Order {
	order := &models.Order{
		StudentID:          studentID,
		TeacherID:          teacherID,
		Title:              req.Title,
		Description:        req.Description,
		Subject:            req.Subject,
		Grade:              req.Grade,
		Curriculum:         req.Curriculum,
		SessionType:        req.SessionType,
		PreferredTime:      req.PreferredTime,
		SessionsPerWeek:    req.SessionsPerWeek,
		SessionDuration:    req.SessionDuration,
		TotalSessions:      req.TotalSessions,
		ProposedRate:       req.ProposedRate,
		Status:             models.StatusPending,
		Priority:           req.Priority,
		StudentNotes:       req.StudentNotes,
		Requirements:       req.Requirements,
		SpecialNeeds:       req.SpecialNeeds,
		PreferredStartDate: req.PreferredStartDate,
	}
	if order.SessionsPerWeek == 0 {
		order.SessionsPerWeek = defaultSessionsPerWeek
	}
	if order.SessionDuration == 0 {
		order.SessionDuration = defaultSessionDuration
	}
	if order.Priority == "" {
		order.Priority = models.PriorityMedium
	}
	if req.SessionType == models.SessionOffline {
		order.Location = &req.Location
		order.Address = &req.Address
	}
	return order
}

// GetOrderByID returns the order with its history and messages. The order's student,
// its teacher and administrators may read it.
func (s *OrderService) GetOrderByID(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	const op = "load order"

	order, err := s.findOrder(ctx, s.db, orderID, true)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if _, err := s.authorize(ctx, order, userID, ActionView, "You do not have permission to view this order"); err != nil {
		return nil, s.fail(op, err)
	}
	return order, nil
}

// UpdateOrder applies a partial update to a PENDING order on behalf of its student.
// The total amount is recomputed when the rate, session count or duration changes.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID, studentUserID uint, req UpdateOrderRequest) (*models.Order, error) {
	const op = "update order"

	if err := validateStruct(req); err != nil {
		return nil, s.fail(op, err)
	}
	if req.PreferredStartDate != nil && req.PreferredStartDate.Before(s.now()) {
		return nil, s.fail(op, errValidation(FieldError{Field: "preferred_start_date", Message: "must not be in the past"}))
	}

	order, err := s.findOrder(ctx, s.db, orderID, false)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if _, err := s.authorize(ctx, order, studentUserID, ActionUpdate, "Only the student who placed the order can update it"); err != nil {
		return nil, s.fail(op, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := lockOrder(tx, orderID, &current); err != nil {
			return err
		}
		if current.Status != models.StatusPending {
			return errInvalidState("Only pending orders can be updated")
		}

		updates, pricingChanged := applyOrderPatch(&current, req)
		if err := checkOfflineLocation(&current); err != nil {
			return err
		}
		if pricingChanged {
			amount := models.TotalAmountFor(current.ProposedRate, current.TotalSessions, &current.SessionDuration)
			if err := checkTotalAmount(amount); err != nil {
				return err
			}
			if amount != nil {
				updates["total_amount"] = *amount
			}
		}
		if len(updates) == 0 {
			return nil
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errInvalidState("Only pending orders can be updated")
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.log.Info("order updated", zap.Uint("order_id", orderID), zap.Uint("user_id", studentUserID))
	return s.reload(ctx, op, orderID, false)
}

// applyOrderPatch merges req into order and returns the column updates it implies,
// and whether any input of the total amount changed
func applyOrderPatch(order *models.Order, req UpdateOrderRequest) (map[string]interface{}, bool) {
	updates := map[string]interface{}{}

	if req.Title != nil {
		order.Title = *req.Title
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		order.Description = *req.Description
		updates["description"] = *req.Description
	}
	if req.Subject != nil {
		order.Subject = *req.Subject
		updates["subject"] = *req.Subject
	}
	if req.Grade != nil {
		order.Grade = *req.Grade
		updates["grade"] = *req.Grade
	}
	if req.Curriculum != nil {
		order.Curriculum = *req.Curriculum
		updates["curriculum"] = *req.Curriculum
	}
	if req.SessionType != nil {
		order.SessionType = *req.SessionType
		updates["session_type"] = *req.SessionType
	}
	if req.PreferredTime != nil {
		order.PreferredTime = *req.PreferredTime
		updates["preferred_time"] = *req.PreferredTime
	}
	if req.SessionsPerWeek != nil {
		order.SessionsPerWeek = *req.SessionsPerWeek
		updates["sessions_per_week"] = *req.SessionsPerWeek
	}
	if req.SessionDuration != nil {
		order.SessionDuration = *req.SessionDuration
		updates["session_duration"] = *req.SessionDuration
	}
	if req.TotalSessions != nil {
		order.TotalSessions = req.TotalSessions
		updates["total_sessions"] = *req.TotalSessions
	}
	if req.Location != nil {
		order.Location = req.Location
		updates["location"] = *req.Location
	}
	if req.Address != nil {
		order.Address = req.Address
		updates["address"] = *req.Address
	}
	if req.ProposedRate != nil {
		order.ProposedRate = req.ProposedRate
		updates["proposed_rate"] = *req.ProposedRate
	}
	if req.Priority != nil {
		order.Priority = *req.Priority
		updates["priority"] = *req.Priority
	}
	if req.StudentNotes != nil {
		order.StudentNotes = req.StudentNotes
		updates["student_notes"] = *req.StudentNotes
	}
	if req.Requirements != nil {
		order.Requirements = req.Requirements
		updates["requirements"] = *req.Requirements
	}
	if req.SpecialNeeds != nil {
		order.SpecialNeeds = req.SpecialNeeds
		updates["special_needs"] = *req.SpecialNeeds
	}
	if req.PreferredStartDate != nil {
		order.PreferredStartDate = req.PreferredStartDate
		updates["preferred_start_date"] = *req.PreferredStartDate
	}

	pricingChanged := req.ProposedRate != nil || req.TotalSessions != nil || req.SessionDuration != nil
	return updates, pricingChanged
}

func checkOfflineLocation(order *models.Order) error {
	if order.SessionType != models.SessionOffline {
		return nil
	}
	var details []FieldError
	if order.Location == nil || *order.Location == "" {
		details = append(details, FieldError{Field: "location", Message: "is required for offline sessions"})
	}
	if order.Address == nil || *order.Address == "" {
		details = append(details, FieldError{Field: "address", Message: "is required for offline sessions"})
	}
	if len(details) > 0 {
		return errValidation(details...)
	}
	return nil
}

// UpdateOrderStatus moves the order to req.Status if the transition table allows it.
// Only the order's teacher or an administrator may call it.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, userID uint, req StatusUpdateRequest) (*models.Order, error) {
	const op = "update order status"

	if err := validateStruct(req); err != nil {
		return nil, s.fail(op, err)
	}

	order, err := s.findOrder(ctx, s.db, orderID, false)
	if err != nil {
		return nil, s.fail(op, err)
	}
	role, err := s.authorize(ctx, order, userID, ActionChangeStatus, "Only the assigned teacher or an administrator can change the order status")
	if err != nil {
		return nil, s.fail(op, err)
	}
	if role == models.RoleTeacher && req.AdminNotes != nil {
		return nil, s.fail(op, errForbidden("Teachers cannot write admin notes"))
	}
	if role == models.RoleAdmin && req.TeacherNotes != nil {
		return nil, s.fail(op, errForbidden("Administrators cannot write teacher notes"))
	}

	fields := map[string]interface{}{}
	if req.TeacherNotes != nil {
		fields["teacher_notes"] = *req.TeacherNotes
	}
	if req.AdminNotes != nil {
		fields["admin_notes"] = *req.AdminNotes
	}
	if req.ActualStartDate != nil {
		fields["actual_start_date"] = *req.ActualStartDate
	}
	if req.EstimatedEndDate != nil {
		fields["estimated_end_date"] = *req.EstimatedEndDate
	}

	reason := req.ChangeReason
	if reason == "" {
		reason = fmt.Sprintf("Status changed to %s", req.Status)
	}

	err = s.changeStatus(ctx, orderID, userID, statusChange{
		target:  req.Status,
		reason:  reason,
		fields:  fields,
		allowed: tableTransition(req.Status),
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return s.reload(ctx, op, orderID, true)
}

// TeacherRespond lets the assigned teacher accept, reject or counter a pending order.
// A supplied message is posted after the status change commits; a failure to post it is
// logged and does not undo the status change.
func (s *OrderService) TeacherRespond(ctx context.Context, orderID, teacherUserID uint, req TeacherRespondRequest) (*models.Order, error) {
	const op = "respond to order"

	if err := validateStruct(req); err != nil {
		return nil, s.fail(op, err)
	}
	if req.Response == ResponseNegotiate && req.CounterRate == nil {
		return nil, s.fail(op, errValidation(FieldError{Field: "counter_rate", Message: "is required when negotiating"}))
	}

	order, err := s.findOrder(ctx, s.db, orderID, false)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if _, err := s.authorize(ctx, order, teacherUserID, ActionRespond, "Only the assigned teacher can respond to this order"); err != nil {
		return nil, s.fail(op, err)
	}

	var change statusChange
	switch req.Response {
	case ResponseAccept:
		change = statusChange{target: models.StatusConfirmed, reason: reasonTeacherAccepted, allowed: tableTransition(models.StatusConfirmed)}
		if req.AvailableStartDate != nil {
			change.fields = map[string]interface{}{"actual_start_date": *req.AvailableStartDate}
		}
	case ResponseReject:
		change = statusChange{target: models.StatusRejected, reason: reasonTeacherRejected, allowed: tableTransition(models.StatusRejected)}
	case ResponseNegotiate:
		change = statusChange{
			target:  models.StatusPending,
			reason:  reasonTeacherNegotiate,
			fields:  map[string]interface{}{"agreed_rate": *req.CounterRate},
			allowed: stillPending,
		}
	}

	if err := s.changeStatus(ctx, orderID, teacherUserID, change); err != nil {
		return nil, s.fail(op, err)
	}

	if strings.TrimSpace(req.Message) != "" {
		if _, err := s.AddOrderMessage(ctx, orderID, teacherUserID, MessageRequest{Message: req.Message}); err != nil {
			s.log.Warn("teacher response message was not posted",
				zap.Uint("order_id", orderID),
				zap.Error(err))
		}
	}

	return s.reload(ctx, op, orderID, true)
}

// CancelOrder cancels a PENDING or CONFIRMED order on behalf of its student
func (s *OrderService) CancelOrder(ctx context.Context, orderID, studentUserID uint, req CancelOrderRequest) (*models.Order, error) {
	const op = "cancel order"

	if err := validateStruct(req); err != nil {
		return nil, s.fail(op, err)
	}

	order, err := s.findOrder(ctx, s.db, orderID, false)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if _, err := s.authorize(ctx, order, studentUserID, ActionCancel, "Only the student who placed the order can cancel it"); err != nil {
		return nil, s.fail(op, err)
	}

	reason := req.Reason
	if reason == "" {
		reason = reasonCancelled
	}

	err = s.changeStatus(ctx, orderID, studentUserID, statusChange{
		target: models.StatusCancelled,
		reason: reason,
		allowed: func(from models.OrderStatus) error {
			if !from.Cancellable() {
				return errInvalidState(fmt.Sprintf("Orders in status %s cannot be cancelled", from))
			}
			return nil
		},
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return s.reload(ctx, op, orderID, true)
}

// checkTotalAmount rejects totals the total_amount column cannot store
func checkTotalAmount(amount *float64) error {
	if amount != nil && *amount > models.MaxTotalAmount {
		return errValidation(FieldError{
			Field:   "total_amount",
			Message: fmt.Sprintf("must be at most %.2f", models.MaxTotalAmount),
		})
	}
	return nil
}

// statusChange describes one audited status write
type statusChange struct {
	target  models.OrderStatus
	reason  string
	fields  map[string]interface{}
	allowed func(from models.OrderStatus) error
}

func tableTransition(target models.OrderStatus) func(models.OrderStatus) error {
	return func(from models.OrderStatus) error {
		if !from.CanTransitionTo(target) {
			return errInvalidTransition(from, target)
		}
		return nil
	}
}

// stillPending guards the negotiation self-loop, which keeps an order PENDING
func stillPending(from models.OrderStatus) error {
	if from != models.StatusPending {
		return errInvalidTransition(from, models.StatusPending)
	}
	return nil
}

func errInvalidTransition(from, to models.OrderStatus) *OrderError {
	detail := fmt.Sprintf("%s is a final status", from)
	if !from.IsTerminal() {
		next := make([]string, 0, 3)
		for _, st := range from.AllowedTransitions() {
			next = append(next, string(st))
		}
		detail = "must be one of: " + strings.Join(next, " ")
	}
	return &OrderError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Cannot change order status from %s to %s", from, to),
		Details: []FieldError{{Field: "status", Message: detail}},
	}
}

// changeStatus re-reads the order under a row lock, checks the change against the status it
// finds, then writes the order and its history row in the same transaction. The update is
// conditioned on the status read so a concurrent writer cannot be overwritten.
func (s *OrderService) changeStatus(ctx context.Context, orderID, actorID uint, change statusChange) error {
	var from models.OrderStatus

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := lockOrder(tx, orderID, &current); err != nil {
			return err
		}
		from = current.Status
		if err := change.allowed(from); err != nil {
			return err
		}

		updates := map[string]interface{}{"status": change.target}
		for column, value := range change.fields {
			updates[column] = value
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errInvalidTransition(from, change.target)
		}

		previous := from
		return tx.Create(&models.OrderHistory{
			OrderID:        orderID,
			PreviousStatus: &previous,
			NewStatus:      change.target,
			ChangedBy:      actorID,
			ChangeReason:   change.reason,
		}).Error
	})
	if err != nil {
		return err
	}

	metrics.ObserveTransition(string(from), string(change.target))
	s.log.Info("order status changed",
		zap.Uint("order_id", orderID),
		zap.Uint("changed_by", actorID),
		zap.String("from", string(from)),
		zap.String("to", string(change.target)),
		zap.String("reason", change.reason))
	return nil
}

// lockOrder reads the order's current status with FOR UPDATE (ignored by SQLite)
func lockOrder(tx *gorm.DB, orderID uint, dest *models.Order) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound("Order not found")
	}
	return err
}

// findOrder loads an order with both parties, and optionally its history and messages
func (s *OrderService) findOrder(ctx context.Context, db *gorm.DB, orderID uint, withThread bool) (*models.Order, error) {
	q := db.WithContext(ctx).Preload("Student.User").Preload("Teacher.User")
	if withThread {
		q = q.Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).Preload("Messages.Sender")
	}

	var order models.Order
	err := q.First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) reload(ctx context.Context, op string, orderID uint, withThread bool) (*models.Order, error) {
	order, err := s.findOrder(ctx, s.db, orderID, withThread)
	if err != nil {
		return nil, s.fail(op, err)
	}
	return order, nil
}

// CheckAccess loads the order and verifies userID may perform action on it
func (s *OrderService) CheckAccess(ctx context.Context, orderID, userID uint, action Action) (models.Role, error) {
	const op = "check order access"

	order, err := s.findOrder(ctx, s.db, orderID, false)
	if err != nil {
		return "", s.fail(op, err)
	}
	role, err := s.authorize(ctx, order, userID, action, "You do not have permission to access this order")
	if err != nil {
		return "", s.fail(op, err)
	}
	return role, nil
}

// authorize resolves the caller's relation to the order and checks it may perform action
func (s *OrderService) authorize(ctx context.Context, order *models.Order, userID uint, action Action, denied string) (models.Role, error) {
	isAdmin := false
	if order.Student.UserID != userID && order.Teacher.UserID != userID {
		var err error
		if isAdmin, err = s.authz.IsAdmin(ctx, userID); err != nil {
			return "", err
		}
	}

	role, ok := RelationTo(order, userID, isAdmin)
	if !ok || !Can(role, action) {
		return "", errForbidden(denied)
	}
	return role, nil
}

// fail logs and counts a failed operation. Business errors pass through unchanged,
// anything else is reported as an internal error without its details.
func (s *OrderService) fail(op string, err error) error {
	var oe *OrderError
	if errors.As(err, &oe) {
		metrics.ObserveError(oe.Code)
		s.log.Debug("order operation rejected",
			zap.String("op", op),
			zap.String("code", oe.Code),
			zap.String("reason", oe.Message))
		return oe
	}

	metrics.ObserveError(CodeInternal)
	s.log.Error("order operation failed", zap.String("op", op), zap.Error(err))
	return &OrderError{Code: CodeInternal, Message: "Failed to " + op, Err: err}
}
