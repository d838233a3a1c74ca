package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tutoring-orders-api/services"
)

// UploadAttachment handles POST /api/v1/orders/:id/attachments - stores a file for use in
// the order's messages
func UploadAttachment(c *gin.Context) {
	attachments := services.GetAttachmentService()
	if attachments == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Attachment storage is not configured", nil)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "A file is required in the 'file' form field", nil)
		return
	}

	attachment, err := attachments.UploadAttachment(c.Request.Context(), orderID, user.ID, fileHeader)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    attachment,
	})
}

// GetAttachmentURL handles GET /api/v1/orders/:id/attachments/url?key= - returns a temporary
// download link
func GetAttachmentURL(c *gin.Context) {
	attachments := services.GetAttachmentService()
	if attachments == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Attachment storage is not configured", nil)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	key := c.Query("key")
	if key == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Query parameter 'key' is required", nil)
		return
	}

	url, err := attachments.GetAttachmentURL(c.Request.Context(), orderID, user.ID, key)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"key":        key,
			"url":        url,
			"expires_in": int(services.PresignedURLTTL.Seconds()),
		},
	})
}
