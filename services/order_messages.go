package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kendall-kelly/tutoring-orders-api/models"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AddOrderMessage appends a message to the order thread. The sender's role is derived
// from their relation to the order. Attachments must be keys previously uploaded for
// this order.
func (s *OrderService) AddOrderMessage(ctx context.Context, orderID, senderUserID uint, req MessageRequest) (*models.OrderMessage, error) {
	const op = "add order message"

	if err := validateStruct(req); err != nil {
		return nil, s.fail(op, err)
	}

	order, err := s.findOrder(ctx, s.db, orderID, false)
	if err != nil {
		return nil, s.fail(op, err)
	}
	role, err := s.authorize(ctx, order, senderUserID, ActionMessage, "You do not have permission to message on this order")
	if err != nil {
		return nil, s.fail(op, err)
	}

	var details []FieldError
	for i, key := range req.Attachments {
		if !ownsAttachment(orderID, key) {
			details = append(details, FieldError{
				Field:   fmt.Sprintf("attachments[%d]", i),
				Message: "does not belong to this order",
			})
		}
	}
	if len(details) > 0 {
		return nil, s.fail(op, errValidation(details...))
	}

	attachments := datatypes.JSONSlice[string]{}
	attachments = append(attachments, req.Attachments...)

	message := models.OrderMessage{
		OrderID:     orderID,
		SenderID:    senderUserID,
		SenderRole:  role,
		Message:     req.Message,
		Attachments: attachments,
	}
	if err := s.db.WithContext(ctx).Omit("Sender").Create(&message).Error; err != nil {
		return nil, s.fail(op, err)
	}

	s.log.Info("order message added",
		zap.Uint("order_id", orderID),
		zap.Uint("message_id", message.ID),
		zap.String("sender_role", string(role)))

	if err := s.db.WithContext(ctx).Preload("Sender").First(&message, message.ID).Error; err != nil {
		return nil, s.fail(op, err)
	}
	return &message, nil
}

// ListOrderMessages returns the order thread, oldest first
func (s *OrderService) ListOrderMessages(ctx context.Context, orderID, userID uint) ([]models.OrderMessage, error) {
	const op = "list order messages"

	order, err := s.findOrder(ctx, s.db, orderID, false)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if _, err := s.authorize(ctx, order, userID, ActionView, "You do not have permission to view this order"); err != nil {
		return nil, s.fail(op, err)
	}

	messages := []models.OrderMessage{}
	err = s.db.WithContext(ctx).
		Preload("Sender").
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, s.fail(op, err)
	}
	return messages, nil
}

// AttachmentKeyPrefix is the storage prefix under which an order's attachments live
func AttachmentKeyPrefix(orderID uint) string {
	return fmt.Sprintf("orders/%d/", orderID)
}

// ownsAttachment reports whether key names a file directly under the order's prefix
func ownsAttachment(orderID uint, key string) bool {
	prefix := AttachmentKeyPrefix(orderID)
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	name := key[len(prefix):]
	return name != "" && !strings.Contains(name, "/")
}
