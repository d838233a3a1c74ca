package services

import (
	"time"

	"github.com/kendall-kelly/tutoring-orders-api/models"
)

// CreateOrderRequest is the payload a student submits to open an order
type CreateOrderRequest struct {
	TeacherID          uint                 `json:"teacher_id" validate:"required"`
	Title              string               `json:"title" validate:"required,min=3,max=200"`
	Description        string               `json:"description" validate:"max=5000"`
	Subject            string               `json:"subject" validate:"required,min=2,max=100"`
	Grade              models.Grade         `json:"grade" validate:"required,grade"`
	Curriculum         models.Curriculum    `json:"curriculum" validate:"required,curriculum"`
	SessionType        models.SessionType   `json:"session_type" validate:"required,session_type"`
	PreferredTime      models.PreferredTime `json:"preferred_time" validate:"required,preferred_time"`
	SessionsPerWeek    int                  `json:"sessions_per_week" validate:"omitempty,min=1,max=7"`
	SessionDuration    int                  `json:"session_duration" validate:"omitempty,min=30,max=180"`
	TotalSessions      *int                 `json:"total_sessions" validate:"omitempty,gt=0,lte=1000"`
	Location           string               `json:"location" validate:"required_if=SessionType OFFLINE,max=255"`
	Address            string               `json:"address" validate:"required_if=SessionType OFFLINE,max=1000"`
	ProposedRate       *float64             `json:"proposed_rate" validate:"omitempty,gt=0,lte=99999999.99"`
	Priority           models.Priority      `json:"priority" validate:"omitempty,priority"`
	StudentNotes       *string              `json:"student_notes" validate:"omitempty,max=2000"`
	Requirements       *string              `json:"requirements" validate:"omitempty,max=2000"`
	SpecialNeeds       *string              `json:"special_needs" validate:"omitempty,max=2000"`
	PreferredStartDate *time.Time           `json:"preferred_start_date"`
}

// UpdateOrderRequest is a partial update of a pending order by its student.
// Nil fields keep their stored value.
type UpdateOrderRequest struct {
	Title              *string               `json:"title" validate:"omitempty,min=3,max=200"`
	Description        *string               `json:"description" validate:"omitempty,max=5000"`
	Subject            *string               `json:"subject" validate:"omitempty,min=2,max=100"`
	Grade              *models.Grade         `json:"grade" validate:"omitempty,grade"`
	Curriculum         *models.Curriculum    `json:"curriculum" validate:"omitempty,curriculum"`
	SessionType        *models.SessionType   `json:"session_type" validate:"omitempty,session_type"`
	PreferredTime      *models.PreferredTime `json:"preferred_time" validate:"omitempty,preferred_time"`
	SessionsPerWeek    *int                  `json:"sessions_per_week" validate:"omitempty,min=1,max=7"`
	SessionDuration    *int                  `json:"session_duration" validate:"omitempty,min=30,max=180"`
	TotalSessions      *int                  `json:"total_sessions" validate:"omitempty,gt=0,lte=1000"`
	Location           *string               `json:"location" validate:"omitempty,max=255"`
	Address            *string               `json:"address" validate:"omitempty,max=1000"`
	ProposedRate       *float64              `json:"proposed_rate" validate:"omitempty,gt=0,lte=99999999.99"`
	Priority           *models.Priority      `json:"priority" validate:"omitempty,priority"`
	StudentNotes       *string               `json:"student_notes" validate:"omitempty,max=2000"`
	Requirements       *string               `json:"requirements" validate:"omitempty,max=2000"`
	SpecialNeeds       *string               `json:"special_needs" validate:"omitempty,max=2000"`
	PreferredStartDate *time.Time            `json:"preferred_start_date"`
}

// StatusUpdateRequest moves an order along the transition table
type StatusUpdateRequest struct {
	Status           models.OrderStatus `json:"status" validate:"required,order_status"`
	ChangeReason     string             `json:"change_reason" validate:"max=1000"`
	TeacherNotes     *string            `json:"teacher_notes" validate:"omitempty,max=2000"`
	AdminNotes       *string            `json:"admin_notes" validate:"omitempty,max=2000"`
	ActualStartDate  *time.Time         `json:"actual_start_date"`
	EstimatedEndDate *time.Time         `json:"estimated_end_date"`
}

// TeacherResponse is the assigned teacher's answer to a pending order
type TeacherResponse string

const (
	ResponseAccept    TeacherResponse = "ACCEPT"
	ResponseReject    TeacherResponse = "REJECT"
	ResponseNegotiate TeacherResponse = "NEGOTIATE"
)

// TeacherRespondRequest is the payload of teacherRespond
type TeacherRespondRequest struct {
	Response           TeacherResponse `json:"response" validate:"required,oneof=ACCEPT REJECT NEGOTIATE"`
	Message            string          `json:"message" validate:"max=2000"`
	CounterRate        *float64        `json:"counter_rate" validate:"omitempty,gt=0,lte=99999999.99"`
	AvailableStartDate *time.Time      `json:"available_start_date"`
}

// CancelOrderRequest carries the optional reason a student gives when cancelling
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// MessageRequest is a new message on an order thread
type MessageRequest struct {
	Message     string   `json:"message" validate:"required,notblank,max=2000"`
	Attachments []string `json:"attachments" validate:"omitempty,max=5,dive,required,max=512"`
}

// OrderFilter narrows listOrders. All set fields must match.
type OrderFilter struct {
	Status      *models.OrderStatus `json:"status" validate:"omitempty,order_status"`
	Priority    *models.Priority    `json:"priority" validate:"omitempty,priority"`
	Grade       *models.Grade       `json:"grade" validate:"omitempty,grade"`
	Curriculum  *models.Curriculum  `json:"curriculum" validate:"omitempty,curriculum"`
	SessionType *models.SessionType `json:"session_type" validate:"omitempty,session_type"`
	Subject     string              `json:"subject" validate:"max=100"`
	CreatedFrom *time.Time          `json:"created_from"`
	CreatedTo   *time.Time          `json:"created_to"`
	MinRate     *float64            `json:"min_rate" validate:"omitempty,gte=0"`
	MaxRate     *float64            `json:"max_rate" validate:"omitempty,gte=0"`
}
