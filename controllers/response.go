package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tutoring-orders-api/config"
	"github.com/kendall-kelly/tutoring-orders-api/middleware"
	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/kendall-kelly/tutoring-orders-api/observability"
	"github.com/kendall-kelly/tutoring-orders-api/services"
	"github.com/kendall-kelly/tutoring-orders-api/utils"
	"gorm.io/gorm"
)

// statusForCode maps order error codes onto HTTP statuses
var statusForCode = map[string]int{
	services.CodeNotFound:           http.StatusNotFound,
	services.CodeForbidden:          http.StatusForbidden,
	services.CodeInvalidState:       http.StatusBadRequest,
	services.CodeInvalidTransition:  http.StatusBadRequest,
	services.CodeValidation:         http.StatusBadRequest,
	services.CodePreconditionFailed: http.StatusBadRequest,
	services.CodeInternal:           http.StatusInternalServerError,
}

func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.PureJSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

// respondServiceError writes the envelope for an error returned by the services package.
// Unexpected errors are reported to Sentry and never shown to the client.
func respondServiceError(c *gin.Context, err error) {
	var oe *services.OrderError
	if errors.As(err, &oe) {
		status, ok := statusForCode[oe.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		if status == http.StatusInternalServerError {
			observability.CaptureErr(err, middleware.GetRequestID(c))
			_ = c.Error(err)
		}
		var details interface{}
		if len(oe.Details) > 0 {
			details = oe.Details
		}
		respondError(c, status, oe.Code, oe.Message, details)
		return
	}

	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message, nil)
		return
	}

	observability.CaptureErr(err, middleware.GetRequestID(c))
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, services.CodeInternal, "An unexpected error occurred", nil)
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, services.CodeValidation, "Invalid request data", err.Error())
}

// currentUser resolves the authenticated caller to a stored user, writing the error
// response itself when that is not possible
func currentUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetAuth0ID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information", nil)
		return nil, false
	}

	var user models.User
	err = config.GetDB().WithContext(c.Request.Context()).Where("auth0_id = ?", auth0ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.", nil)
		return nil, false
	}
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return &user, true
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid "+name+" parameter", nil)
		return 0, false
	}
	return uint(id), true
}
