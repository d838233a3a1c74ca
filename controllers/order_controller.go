package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tutoring-orders-api/config"
	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/kendall-kelly/tutoring-orders-api/services"
)

// CreateOrder handles POST /api/v1/orders - a student places an order with a teacher
func CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := services.GetOrderService().CreateOrder(c.Request.Context(), user.ID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order created successfully",
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - lists the caller's orders, or all orders for admins
func ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := parseOrderFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, services.CodeValidation, "Invalid filter", err.Error())
		return
	}
	page, pageSize, err := parsePage(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, services.CodeValidation, "Invalid pagination parameters", err.Error())
		return
	}

	orderService := services.GetOrderService()
	scope, err := orderService.ResolveScope(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := orderService.ListOrders(c.Request.Context(), scope, filter, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       result.Orders,
		"pagination": result.Pagination,
	})
}

// GetOrder handles GET /api/v1/orders/:id - returns an order with its history and messages
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := services.GetOrderService().GetOrderByID(c.Request.Context(), orderID, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrder handles PUT /api/v1/orders/:id - the student edits a pending order
func UpdateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := services.GetOrderService().UpdateOrder(c.Request.Context(), orderID, user.ID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order updated successfully",
		"data":    order,
	})
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status - teacher or admin moves the order
func UpdateOrderStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := services.GetOrderService().UpdateOrderStatus(c.Request.Context(), orderID, user.ID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Order status updated to %s", order.Status),
		"data":    order,
	})
}

// RespondToOrder handles POST /api/v1/orders/:id/respond - the teacher accepts, rejects or negotiates
func RespondToOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.TeacherRespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := services.GetOrderService().TeacherRespond(c.Request.Context(), orderID, user.ID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Response recorded",
		"data":    order,
	})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel - the student cancels the order
func CancelOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	// The body is optional
	var req services.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	order, err := services.GetOrderService().CancelOrder(c.Request.Context(), orderID, user.ID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order cancelled",
		"data":    order,
	})
}

// ExportOrders handles GET /api/v1/admin/orders/export - downloads matching orders as xlsx
func ExportOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := parseOrderFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, services.CodeValidation, "Invalid filter", err.Error())
		return
	}

	buf, err := services.GetOrderService().ExportOrders(c.Request.Context(), user.ID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// parsePage reads page and page_size (or limit), defaulting to the configured page size
func parsePage(c *gin.Context) (int, int, error) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("page must be a number")
		}
		page = n
	}

	pageSize := services.DefaultPageSize
	if cfg := config.GetConfig(); cfg != nil && cfg.DefaultPageSize > 0 {
		pageSize = cfg.DefaultPageSize
	}
	raw := c.Query("page_size")
	if raw == "" {
		raw = c.Query("limit")
	}
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("page_size must be a number")
		}
		pageSize = n
	}
	return page, pageSize, nil
}

// parseOrderFilter reads the listing filters from the query string. Enum values are
// checked later by the service.
func parseOrderFilter(c *gin.Context) (services.OrderFilter, error) {
	var f services.OrderFilter

	if v := strings.ToUpper(c.Query("status")); v != "" {
		status := models.OrderStatus(v)
		f.Status = &status
	}
	if v := strings.ToUpper(c.Query("priority")); v != "" {
		priority := models.Priority(v)
		f.Priority = &priority
	}
	if v := strings.ToUpper(c.Query("grade")); v != "" {
		grade := models.Grade(v)
		f.Grade = &grade
	}
	if v := strings.ToUpper(c.Query("curriculum")); v != "" {
		curriculum := models.Curriculum(v)
		f.Curriculum = &curriculum
	}
	if v := strings.ToUpper(c.Query("session_type")); v != "" {
		sessionType := models.SessionType(v)
		f.SessionType = &sessionType
	}
	f.Subject = c.Query("subject")

	var err error
	if f.CreatedFrom, err = queryTime(c, "created_from", false); err != nil {
		return f, err
	}
	if f.CreatedTo, err = queryTime(c, "created_to", true); err != nil {
		return f, err
	}
	if f.MinRate, err = queryFloat(c, "min_rate"); err != nil {
		return f, err
	}
	if f.MaxRate, err = queryFloat(c, "max_rate"); err != nil {
		return f, err
	}
	return f, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates. A plain date used as an upper
// bound covers the whole day.
func queryTime(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryFloat(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}
