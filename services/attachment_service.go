package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/kendall-kelly/tutoring-orders-api/utils"
)

// Attachment describes a stored file that can be referenced from an order message
type Attachment struct {
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// AttachmentService stores order message attachments and hands out download links
type AttachmentService interface {
	// UploadAttachment validates and stores a file for the order, returns its storage key
	UploadAttachment(ctx context.Context, orderID, userID uint, fileHeader *multipart.FileHeader) (*Attachment, error)

	// GetAttachmentURL generates a temporary download URL for one of the order's attachments
	GetAttachmentURL(ctx context.Context, orderID, userID uint, key string) (string, error)
}

// S3AttachmentService implements AttachmentService using AWS S3 for storage
type S3AttachmentService struct {
	s3Service S3Interface
	orders    *OrderService
	newID     func() string
}

var attachmentServiceInstance AttachmentService

// InitAttachmentService initializes the attachment service with S3 backend
func InitAttachmentService(s3Service S3Interface, orders *OrderService) AttachmentService {
	attachmentServiceInstance = NewAttachmentService(s3Service, orders)
	return attachmentServiceInstance
}

// NewAttachmentService creates an S3 backed attachment service
func NewAttachmentService(s3Service S3Interface, orders *OrderService) *S3AttachmentService {
	return &S3AttachmentService{
		s3Service: s3Service,
		orders:    orders,
		newID:     uuid.NewString,
	}
}

// GetAttachmentService returns the initialized attachment service instance, nil when
// storage is not configured
func GetAttachmentService() AttachmentService {
	return attachmentServiceInstance
}

// SetAttachmentService sets the attachment service instance (primarily for testing)
func SetAttachmentService(service AttachmentService) {
	attachmentServiceInstance = service
}

// UploadAttachment stores the file under the order's key prefix. Anyone who may message
// on the order may upload.
func (s *S3AttachmentService) UploadAttachment(ctx context.Context, orderID, userID uint, fileHeader *multipart.FileHeader) (*Attachment, error) {
	if _, err := s.orders.CheckAccess(ctx, orderID, userID, ActionMessage); err != nil {
		return nil, err
	}
	if err := utils.ValidateAttachment(fileHeader); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	filename := utils.SanitizeFilename(fileHeader.Filename)
	attachment := &Attachment{
		Key:         fmt.Sprintf("%s%s_%s", AttachmentKeyPrefix(orderID), s.newID(), filename),
		Filename:    filename,
		ContentType: utils.ContentTypeFor(filename),
		Size:        fileHeader.Size,
	}

	if err := s.s3Service.UploadFile(ctx, attachment.Key, attachment.ContentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}
	return attachment, nil
}

// GetAttachmentURL returns a presigned URL for key, which must belong to the order
func (s *S3AttachmentService) GetAttachmentURL(ctx context.Context, orderID, userID uint, key string) (string, error) {
	if _, err := s.orders.CheckAccess(ctx, orderID, userID, ActionView); err != nil {
		return "", err
	}

	if !ownsAttachment(orderID, key) {
		return "", errValidation(FieldError{Field: "key", Message: "does not belong to this order"})
	}

	url, err := s.s3Service.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate attachment URL: %w", err)
	}
	return url, nil
}
