package services

import "github.com/kendall-kelly/tutoring-orders-api/models"

// Action is something an actor can attempt on an existing order
type Action int

const (
	ActionView Action = iota
	ActionMessage
	ActionUpdate
	ActionCancel
	ActionChangeStatus
	ActionRespond
)

// permissions lists, per action, the relations to the order allowed to perform it
var permissions = map[Action][]models.Role{
	ActionView:         {models.RoleStudent, models.RoleTeacher, models.RoleAdmin},
	ActionMessage:      {models.RoleStudent, models.RoleTeacher, models.RoleAdmin},
	ActionUpdate:       {models.RoleStudent},
	ActionCancel:       {models.RoleStudent},
	ActionChangeStatus: {models.RoleTeacher, models.RoleAdmin},
	ActionRespond:      {models.RoleTeacher},
}

// RelationTo derives how userID relates to the order: its student, its teacher,
// or an administrator with no direct involvement. ok is false for anyone else.
// The order must have Student and Teacher loaded.
func RelationTo(order *models.Order, userID uint, isAdmin bool) (role models.Role, ok bool) {
	switch {
	case order.Student.UserID == userID:
		return models.RoleStudent, true
	case order.Teacher.UserID == userID:
		return models.RoleTeacher, true
	case isAdmin:
		return models.RoleAdmin, true
	}
	return "", false
}

// Can reports whether an actor with the given relation may perform the action
func Can(role models.Role, action Action) bool {
	for _, allowed := range permissions[action] {
		if allowed == role {
			return true
		}
	}
	return false
}
