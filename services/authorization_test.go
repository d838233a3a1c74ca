package services

import (
	"testing"

	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/stretchr/testify/assert"
)

func TestRelationTo(t *testing.T) {
	order := &models.Order{
		Student: models.Student{UserID: 1},
		Teacher: models.Teacher{UserID: 2},
	}

	tests := []struct {
		name    string
		userID  uint
		isAdmin bool
		want    models.Role
		wantOK  bool
	}{
		{"student", 1, false, models.RoleStudent, true},
		{"teacher", 2, false, models.RoleTeacher, true},
		{"admin", 3, true, models.RoleAdmin, true},
		{"stranger", 4, false, "", false},
		{"participant wins over admin", 2, true, models.RoleTeacher, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, ok := RelationTo(order, tt.userID, tt.isAdmin)
			assert.Equal(t, tt.want, role)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCan(t *testing.T) {
	student, teacher, admin := models.RoleStudent, models.RoleTeacher, models.RoleAdmin

	for _, role := range []models.Role{student, teacher, admin} {
		assert.True(t, Can(role, ActionView), role)
		assert.True(t, Can(role, ActionMessage), role)
	}

	assert.True(t, Can(student, ActionUpdate))
	assert.False(t, Can(teacher, ActionUpdate))
	assert.False(t, Can(admin, ActionUpdate))

	assert.True(t, Can(student, ActionCancel))
	assert.False(t, Can(teacher, ActionCancel))
	assert.False(t, Can(admin, ActionCancel))

	assert.False(t, Can(student, ActionChangeStatus))
	assert.True(t, Can(teacher, ActionChangeStatus))
	assert.True(t, Can(admin, ActionChangeStatus))

	assert.False(t, Can(student, ActionRespond))
	assert.True(t, Can(teacher, ActionRespond))
	assert.False(t, Can(admin, ActionRespond))

	assert.False(t, Can("", ActionView))
}
