package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Order is a request from a student to a teacher for a series of tutoring sessions
type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Both parties are fixed at creation and never updated afterwards
	StudentID uint    `gorm:"not null;index" json:"student_id"`
	Student   Student `gorm:"foreignKey:StudentID" json:"student"`
	TeacherID uint    `gorm:"not null;index" json:"teacher_id"`
	Teacher   Teacher `gorm:"foreignKey:TeacherID" json:"teacher"`

	Title           string        `gorm:"not null" json:"title"`
	Description     string        `gorm:"type:text" json:"description"`
	Subject         string        `gorm:"not null;index" json:"subject"`
	Grade           Grade         `gorm:"type:varchar(20);not null" json:"grade"`
	Curriculum      Curriculum    `gorm:"type:varchar(20);not null" json:"curriculum"`
	SessionType     SessionType   `gorm:"type:varchar(10);not null" json:"session_type"`
	PreferredTime   PreferredTime `gorm:"type:varchar(10);not null" json:"preferred_time"`
	SessionsPerWeek int           `gorm:"not null;default:1;check:sessions_per_week BETWEEN 1 AND 7" json:"sessions_per_week"`
	SessionDuration int           `gorm:"not null;default:60;check:session_duration BETWEEN 30 AND 180" json:"session_duration"` // minutes
	TotalSessions   *int          `json:"total_sessions"`
	Location        *string       `json:"location"`
	Address         *string       `gorm:"type:text" json:"address"`

	ProposedRate *float64 `gorm:"type:numeric(10,2)" json:"proposed_rate"`
	AgreedRate   *float64 `gorm:"type:numeric(10,2)" json:"agreed_rate"`
	TotalAmount  *float64 `gorm:"type:numeric(12,2)" json:"total_amount"` // derived, see TotalAmountFor

	Status   OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Priority Priority    `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`

	StudentNotes *string `gorm:"type:text" json:"student_notes"`
	TeacherNotes *string `gorm:"type:text" json:"teacher_notes"`
	AdminNotes   *string `gorm:"type:text" json:"admin_notes"`
	Requirements *string `gorm:"type:text" json:"requirements"`
	SpecialNeeds *string `gorm:"type:text" json:"special_needs"`

	PreferredStartDate *time.Time `json:"preferred_start_date"`
	ActualStartDate    *time.Time `json:"actual_start_date"`
	EstimatedEndDate   *time.Time `json:"estimated_end_date"`

	History  []OrderHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"`
	Messages []OrderMessage `gorm:"foreignKey:OrderID" json:"messages,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderHistory is one append-only audit row per state-changing operation on an order
type OrderHistory struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OrderID        uint         `gorm:"not null;index" json:"order_id"`
	PreviousStatus *OrderStatus `gorm:"type:varchar(20)" json:"previous_status"` // nil for the creation row
	NewStatus      OrderStatus  `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy      uint         `gorm:"not null" json:"changed_by"` // user id
	ChangeReason   string       `gorm:"type:text" json:"change_reason"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the OrderHistory model
func (OrderHistory) TableName() string {
	return "order_history"
}

// MaxTotalAmount is the largest total the NUMERIC(12,2) column holds
const MaxTotalAmount = 9999999999.99

// TotalAmountFor derives the order total from an hourly rate, the number of sessions and
// the session length in minutes. It returns nil unless all three inputs are known.
func TotalAmountFor(rate *float64, totalSessions *int, sessionDuration *int) *float64 {
	if rate == nil || totalSessions == nil || sessionDuration == nil {
		return nil
	}
	amount := *rate * (float64(*sessionDuration) / 60) * float64(*totalSessions)
	amount = math.Round(amount*100) / 100
	return &amount
}
