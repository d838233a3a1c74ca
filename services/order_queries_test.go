package services

import (
	"testing"
	"time"

	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/kendall-kelly/tutoring-orders-api/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{"defaults pass through", 1, 10, 1, 10},
		{"zero page", 0, 10, 1, 10},
		{"negative page", -3, 10, 1, 10},
		{"zero size", 2, 0, 2, 1},
		{"oversized", 1, 500, 1, MaxPageSize},
		{"max size", 4, MaxPageSize, 4, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := ClampPage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSz, size)
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(25, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(25), p.TotalItems)
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)

	p = NewPagination(0, 1, 10)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.False(t, p.HasPrevPage)

	p = NewPagination(20, 2, 10)
	assert.False(t, p.HasNextPage)
}

func (s *OrderServiceSuite) TestResolveScope() {
	scope, err := s.svc.ResolveScope(s.ctx, s.admin.ID)
	s.Require().NoError(err)
	s.Nil(scope.StudentID)
	s.Nil(scope.TeacherID)

	scope, err = s.svc.ResolveScope(s.ctx, s.student.UserID)
	s.Require().NoError(err)
	s.Require().NotNil(scope.StudentID)
	s.Equal(s.student.ID, *scope.StudentID)
	s.Nil(scope.TeacherID)

	scope, err = s.svc.ResolveScope(s.ctx, s.teacher.UserID)
	s.Require().NoError(err)
	s.Require().NotNil(scope.TeacherID)
	s.Equal(s.teacher.ID, *scope.TeacherID)

	nobody := testutil.CreateUser(s.T(), s.db, "No Profile", models.RoleStudent)
	_, err = s.svc.ResolveScope(s.ctx, nobody.ID)
	s.requireCode(err, CodeForbidden)
}

func (s *OrderServiceSuite) TestListOrders_ScopedToParticipant() {
	otherStudent := testutil.CreateStudent(s.T(), s.db, "Other Student", true)
	otherTeacher := testutil.CreateTeacher(s.T(), s.db, "Other Teacher", true)

	mine := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)
	testutil.CreateOrder(s.T(), s.db, otherStudent, s.teacher, models.StatusPending)
	testutil.CreateOrder(s.T(), s.db, otherStudent, otherTeacher, models.StatusPending)

	scope, err := s.svc.ResolveScope(s.ctx, s.student.UserID)
	s.Require().NoError(err)
	page, err := s.svc.ListOrders(s.ctx, scope, OrderFilter{}, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(page.Orders, 1)
	s.Equal(mine.ID, page.Orders[0].ID)
	s.Equal(s.student.UserID, page.Orders[0].Student.User.ID)

	scope, err = s.svc.ResolveScope(s.ctx, s.teacher.UserID)
	s.Require().NoError(err)
	page, err = s.svc.ListOrders(s.ctx, scope, OrderFilter{}, 1, 10)
	s.Require().NoError(err)
	s.Len(page.Orders, 2)
	for _, o := range page.Orders {
		s.Equal(s.teacher.ID, o.TeacherID)
	}

	page, err = s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{}, 1, 10)
	s.Require().NoError(err)
	s.Len(page.Orders, 3)
	s.Equal(int64(3), page.Pagination.TotalItems)
}

func (s *OrderServiceSuite) TestListOrders_NewestFirstAndPaginated() {
	var ids []uint
	for i := 0; i < 25; i++ {
		ids = append(ids, testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending).ID)
	}

	page, err := s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{}, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(page.Orders, 10)
	s.Equal(ids[24], page.Orders[0].ID)
	s.Equal(Pagination{
		CurrentPage: 1, TotalPages: 3, TotalItems: 25, ItemsPerPage: 10,
		HasNextPage: true, HasPrevPage: false,
	}, page.Pagination)

	page, err = s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{}, 3, 10)
	s.Require().NoError(err)
	s.Len(page.Orders, 5)
	s.Equal(ids[0], page.Orders[4].ID)
	s.False(page.Pagination.HasNextPage)
	s.True(page.Pagination.HasPrevPage)

	page, err = s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{}, 9, 10)
	s.Require().NoError(err)
	s.Empty(page.Orders)
	s.NotNil(page.Orders)
}

func (s *OrderServiceSuite) TestListOrders_ClampsPageArguments() {
	for i := 0; i < 3; i++ {
		testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)
	}

	page, err := s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{}, 0, 1000)
	s.Require().NoError(err)
	s.Equal(1, page.Pagination.CurrentPage)
	s.Equal(MaxPageSize, page.Pagination.ItemsPerPage)
	s.Len(page.Orders, 3)
}

func (s *OrderServiceSuite) TestListOrders_Filters() {
	confirmed := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusConfirmed)
	pending := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)
	physics := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)
	s.Require().NoError(s.db.Model(physics).Updates(map[string]interface{}{
		"subject":      "Physics",
		"priority":     models.PriorityUrgent,
		"session_type": models.SessionOffline,
		"agreed_rate":  80.0,
	}).Error)

	ids := func(f OrderFilter) []uint {
		page, err := s.svc.ListOrders(s.ctx, OrderScope{}, f, 1, 50)
		s.Require().NoError(err)
		out := []uint{}
		for _, o := range page.Orders {
			out = append(out, o.ID)
		}
		return out
	}

	s.ElementsMatch([]uint{confirmed.ID}, ids(OrderFilter{Status: ptr(models.StatusConfirmed)}))
	s.ElementsMatch([]uint{pending.ID, physics.ID}, ids(OrderFilter{Status: ptr(models.StatusPending)}))
	s.ElementsMatch([]uint{physics.ID}, ids(OrderFilter{Subject: "PHYS"}))
	s.ElementsMatch([]uint{physics.ID}, ids(OrderFilter{Priority: ptr(models.PriorityUrgent)}))
	s.ElementsMatch([]uint{physics.ID}, ids(OrderFilter{SessionType: ptr(models.SessionOffline)}))
	s.Len(ids(OrderFilter{Grade: ptr(models.Grade8), Curriculum: ptr(models.CurriculumCBSE)}), 3)
	s.Empty(ids(OrderFilter{Grade: ptr(models.Grade12)}))

	// the agreed rate takes precedence over the proposed one
	s.ElementsMatch([]uint{physics.ID}, ids(OrderFilter{MinRate: ptr(60.0)}))
	s.ElementsMatch([]uint{confirmed.ID, pending.ID}, ids(OrderFilter{MaxRate: ptr(50.0)}))
	s.Len(ids(OrderFilter{MinRate: ptr(50.0), MaxRate: ptr(80.0)}), 3)

	now := time.Now()
	s.Len(ids(OrderFilter{CreatedFrom: ptr(now.Add(-time.Hour)), CreatedTo: ptr(now.Add(time.Hour))}), 3)
	s.Empty(ids(OrderFilter{CreatedFrom: ptr(now.Add(time.Hour))}))
}

func (s *OrderServiceSuite) TestListOrders_SubjectWildcardsMatchLiterally() {
	subjects := []string{"Maths 100% prep", "Maths 1000 prep", "Lab_2 chemistry", "Lab-2 chemistry", `C:\ basics`}
	byID := map[uint]string{}
	for _, subject := range subjects {
		order := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)
		s.Require().NoError(s.db.Model(order).Update("subject", subject).Error)
		byID[order.ID] = subject
	}

	matched := func(subject string) []string {
		page, err := s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{Subject: subject}, 1, 50)
		s.Require().NoError(err)
		out := []string{}
		for _, o := range page.Orders {
			out = append(out, byID[o.ID])
		}
		return out
	}

	s.ElementsMatch([]string{"Maths 100% prep"}, matched("100%"))
	s.ElementsMatch([]string{"Lab_2 chemistry"}, matched("lab_2"))
	s.ElementsMatch([]string{`C:\ basics`}, matched(`c:\`))
	s.ElementsMatch([]string{"Maths 100% prep"}, matched("%"))
	s.Len(matched("prep"), 2)
}

func (s *OrderServiceSuite) TestListOrders_InvalidFilter() {
	_, err := s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{MinRate: ptr(90.0), MaxRate: ptr(10.0)}, 1, 10)
	s.requireCode(err, CodeValidation)

	now := time.Now()
	_, err = s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{CreatedFrom: ptr(now), CreatedTo: ptr(now.Add(-time.Hour))}, 1, 10)
	s.requireCode(err, CodeValidation)

	_, err = s.svc.ListOrders(s.ctx, OrderScope{}, OrderFilter{Status: ptr(models.OrderStatus("LOST"))}, 1, 10)
	s.requireCode(err, CodeValidation)
}

func (s *OrderServiceSuite) TestFindOrders_Limit() {
	for i := 0; i < 4; i++ {
		testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)
	}

	orders, err := s.svc.FindOrders(s.ctx, OrderScope{}, OrderFilter{}, 2)
	s.Require().NoError(err)
	s.Len(orders, 2)
	s.NotEmpty(orders[0].Teacher.User.Email)
}
