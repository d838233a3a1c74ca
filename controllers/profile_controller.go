package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/kendall-kelly/tutoring-orders-api/services"
)

// IntakeRequest is the student intake form
type IntakeRequest struct {
	Grade      models.Grade      `json:"grade" binding:"required"`
	Curriculum models.Curriculum `json:"curriculum" binding:"required"`
}

// ApprovalRequest approves or unapproves a teacher
type ApprovalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// CompleteIntake handles PUT /api/v1/students/me/intake - completes the student's intake form
func CompleteIntake(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var details []services.FieldError
	if !req.Grade.Valid() {
		details = append(details, services.FieldError{Field: "grade", Message: "is not a valid grade"})
	}
	if !req.Curriculum.Valid() {
		details = append(details, services.FieldError{Field: "curriculum", Message: "is not a valid curriculum"})
	}
	if len(details) > 0 {
		respondError(c, http.StatusBadRequest, services.CodeValidation, "Invalid request data", details)
		return
	}

	student, err := services.GetDirectory().CompleteStudentIntake(c.Request.Context(), user.ID, req.Grade, req.Curriculum)
	if errors.Is(err, services.ErrProfileNotFound) {
		respondError(c, http.StatusNotFound, services.CodeNotFound, "Student profile not found", nil)
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Intake form completed",
		"data":    student,
	})
}

// SetTeacherApproval handles PUT /api/v1/admin/teachers/:id/approval - admins approve teachers
func SetTeacherApproval(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	teacherID, ok := idParam(c, "id")
	if !ok {
		return
	}

	directory := services.GetDirectory()
	isAdmin, err := directory.IsAdmin(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !isAdmin {
		respondError(c, http.StatusForbidden, services.CodeForbidden, "Only administrators can approve teachers", nil)
		return
	}

	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	teacher, err := directory.SetTeacherApproval(c.Request.Context(), teacherID, *req.Approved)
	if errors.Is(err, services.ErrProfileNotFound) {
		respondError(c, http.StatusNotFound, services.CodeNotFound, "Teacher not found", nil)
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    teacher,
	})
}
