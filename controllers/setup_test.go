package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tutoring-orders-api/config"
	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/kendall-kelly/tutoring-orders-api/services"
	"github.com/kendall-kelly/tutoring-orders-api/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// testEnv is an in-memory API with one approved teacher, one student who completed
// the intake form and one administrator
type testEnv struct {
	db      *gorm.DB
	router  *gin.Engine
	orders  *services.OrderService
	student *models.Student
	teacher *models.Teacher
	admin   *models.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{GoEnv: "test", DefaultPageSize: 10})

	dir := services.NewDirectory(db)
	services.SetDirectory(dir)
	orders := services.NewOrderService(db, dir, dir, dir, zaptest.NewLogger(t))
	services.SetOrderService(orders)
	services.SetAttachmentService(nil)

	return &testEnv{
		db:      db,
		router:  setupTestRouter(),
		orders:  orders,
		student: testutil.CreateStudent(t, db, "Priya Student", true),
		teacher: testutil.CreateTeacher(t, db, "Tariq Teacher", true),
		admin:   testutil.CreateAdmin(t, db, "Alex Admin"),
	}
}

// setupTestRouter registers the handlers behind header based test authentication
func setupTestRouter() *gin.Engine {
	router := gin.New()
	api := router.Group("/api/v1", testutil.HeaderAuth())

	api.POST("/users", CreateUser)
	api.GET("/users/me", GetMyProfile)
	api.PUT("/users/me", UpdateMyProfile)
	api.PUT("/students/me/intake", CompleteIntake)

	api.POST("/orders", CreateOrder)
	api.GET("/orders", ListOrders)
	api.GET("/orders/:id", GetOrder)
	api.PUT("/orders/:id", UpdateOrder)
	api.PATCH("/orders/:id/status", UpdateOrderStatus)
	api.POST("/orders/:id/respond", RespondToOrder)
	api.POST("/orders/:id/cancel", CancelOrder)
	api.POST("/orders/:id/messages", SendMessage)
	api.GET("/orders/:id/messages", ListMessages)
	api.POST("/orders/:id/attachments", UploadAttachment)
	api.GET("/orders/:id/attachments/url", GetAttachmentURL)

	api.GET("/admin/orders/export", ExportOrders)
	api.PUT("/admin/teachers/:id/approval", SetTeacherApproval)
	return router
}

// request performs an API call as the user with the given Auth0 ID. An empty auth0ID
// sends the request unauthenticated.
func (e *testEnv) request(t *testing.T, method, path, auth0ID string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth0ID != "" {
		req.Header.Set(testutil.Auth0Header, auth0ID)
	}

	return e.serve(t, req)
}

func (e *testEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func createRequestFor(teacherID uint) services.CreateOrderRequest {
	sessions, rate := 10, 50.0
	return services.CreateOrderRequest{
		TeacherID:       teacherID,
		Title:           "Algebra support",
		Subject:         "Mathematics",
		Grade:           models.Grade8,
		Curriculum:      models.CurriculumCBSE,
		SessionType:     models.SessionOnline,
		PreferredTime:   models.PreferredWeekdays,
		SessionsPerWeek: 2,
		SessionDuration: 60,
		TotalSessions:   &sessions,
		ProposedRate:    &rate,
	}
}

func errorCode(response map[string]interface{}) string {
	errData, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errData["code"].(string)
	return code
}

func dataOf(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", response)
	return data
}
