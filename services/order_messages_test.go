package services

import (
	"strings"

	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/kendall-kelly/tutoring-orders-api/testutil"
)

func (s *OrderServiceSuite) TestAddOrderMessage_DerivesSenderRole() {
	order := s.createOrder()

	cases := []struct {
		userID uint
		role   models.Role
	}{
		{s.student.UserID, models.RoleStudent},
		{s.teacher.UserID, models.RoleTeacher},
		{s.admin.ID, models.RoleAdmin},
	}
	for _, tc := range cases {
		msg, err := s.svc.AddOrderMessage(s.ctx, order.ID, tc.userID, MessageRequest{Message: "Hi from " + string(tc.role)})
		s.Require().NoError(err)
		s.Equal(tc.role, msg.SenderRole)
		s.Equal(tc.userID, msg.SenderID)
		s.Equal(tc.userID, msg.Sender.ID)
		s.NotNil(msg.Attachments)
		s.Empty(msg.Attachments)
	}

	messages, err := s.svc.ListOrderMessages(s.ctx, order.ID, s.student.UserID)
	s.Require().NoError(err)
	s.Require().Len(messages, 3)
	s.Equal("Hi from student", messages[0].Message)
	s.Equal("Hi from admin", messages[2].Message)

	s.Len(s.history(order.ID), 1, "messages do not change status")
}

func (s *OrderServiceSuite) TestAddOrderMessage_AllowedOnTerminalOrders() {
	order := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusCompleted)

	_, err := s.svc.AddOrderMessage(s.ctx, order.ID, s.student.UserID, MessageRequest{Message: "Thanks!"})
	s.NoError(err)
}

func (s *OrderServiceSuite) TestAddOrderMessage_StrangerForbidden() {
	order := s.createOrder()
	stranger := testutil.CreateTeacher(s.T(), s.db, "Other Teacher", true)

	_, err := s.svc.AddOrderMessage(s.ctx, order.ID, stranger.UserID, MessageRequest{Message: "Let me in"})
	s.requireCode(err, CodeForbidden)

	_, err = s.svc.ListOrderMessages(s.ctx, order.ID, stranger.UserID)
	s.requireCode(err, CodeForbidden)

	_, err = s.svc.AddOrderMessage(s.ctx, order.ID+50, s.student.UserID, MessageRequest{Message: "Anyone?"})
	s.requireCode(err, CodeNotFound)
}

func (s *OrderServiceSuite) TestAddOrderMessage_Validation() {
	order := s.createOrder()

	_, err := s.svc.AddOrderMessage(s.ctx, order.ID, s.student.UserID, MessageRequest{})
	s.requireCode(err, CodeValidation)

	_, err = s.svc.AddOrderMessage(s.ctx, order.ID, s.student.UserID, MessageRequest{Message: " \t\n  "})
	s.requireCode(err, CodeValidation)
	s.Equal([]FieldError{{Field: "message", Message: "must not be blank"}}, err.(*OrderError).Details)

	_, err = s.svc.AddOrderMessage(s.ctx, order.ID, s.student.UserID, MessageRequest{Message: strings.Repeat("a", 2001)})
	s.requireCode(err, CodeValidation)

	_, err = s.svc.AddOrderMessage(s.ctx, order.ID, s.student.UserID, MessageRequest{
		Message:     "Too many files",
		Attachments: []string{"a", "b", "c", "d", "e", "f"},
	})
	s.requireCode(err, CodeValidation)

	messages, err := s.svc.ListOrderMessages(s.ctx, order.ID, s.student.UserID)
	s.Require().NoError(err)
	s.Empty(messages)
}

func (s *OrderServiceSuite) TestAddOrderMessage_Attachments() {
	order := s.createOrder()
	other := s.createOrder()
	prefix := AttachmentKeyPrefix(order.ID)

	msg, err := s.svc.AddOrderMessage(s.ctx, order.ID, s.teacher.UserID, MessageRequest{
		Message:     "Worksheet attached",
		Attachments: []string{prefix + "abc_worksheet.pdf"},
	})
	s.Require().NoError(err)
	s.Equal([]string{prefix + "abc_worksheet.pdf"}, []string(msg.Attachments))

	_, err = s.svc.AddOrderMessage(s.ctx, order.ID, s.teacher.UserID, MessageRequest{
		Message:     "Wrong order",
		Attachments: []string{prefix + "ok.pdf", AttachmentKeyPrefix(other.ID) + "theirs.pdf"},
	})
	s.requireCode(err, CodeValidation)

	var oe *OrderError
	s.Require().ErrorAs(err, &oe)
	s.Require().Len(oe.Details, 1)
	s.Equal("attachments[1]", oe.Details[0].Field)
}

func (s *OrderServiceSuite) TestOwnsAttachment() {
	s.True(ownsAttachment(7, "orders/7/x_file.pdf"))
	s.False(ownsAttachment(7, "orders/7/"))
	s.False(ownsAttachment(7, "orders/70/x.pdf"))
	s.False(ownsAttachment(7, "orders/7/nested/x.pdf"))
	s.False(ownsAttachment(7, "uploads/x.pdf"))
}
