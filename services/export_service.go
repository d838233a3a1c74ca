package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// MaxExportRows caps a single workbook export
	MaxExportRows = 10000

	ordersSheet = "Orders"

	// built-in "0.00" number format
	moneyNumFmt = 2
)

var exportHeader = []string{
	"ID", "Created", "Status", "Priority", "Title", "Subject", "Grade", "Curriculum",
	"Session Type", "Preferred Time", "Sessions/Week", "Duration (min)", "Total Sessions",
	"Proposed Rate", "Agreed Rate", "Total Amount", "Student", "Student Email", "Teacher", "Teacher Email",
}

// ExportOrders writes the orders matching filter to an xlsx workbook. Administrators only.
func (s *OrderService) ExportOrders(ctx context.Context, userID uint, filter OrderFilter) (*bytes.Buffer, error) {
	const op = "export orders"

	isAdmin, err := s.authz.IsAdmin(ctx, userID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if !isAdmin {
		return nil, s.fail(op, errForbidden("Only administrators can export orders"))
	}

	orders, err := s.FindOrders(ctx, OrderScope{}, filter, MaxExportRows)
	if err != nil {
		return nil, err
	}

	f, err := BuildOrdersWorkbook(orders)
	if err != nil {
		return nil, s.fail(op, err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("write workbook: %w", err))
	}

	s.log.Info("orders exported", zap.Uint("user_id", userID), zap.Int("rows", len(orders)))
	return buf, nil
}

// BuildOrdersWorkbook lays out one row per order under a bold, filterable header
func BuildOrdersWorkbook(orders []models.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellStr(ordersSheet, cell, title); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(ordersSheet, "A1", lastHeader, bold)
	}
	_ = f.AutoFilter(ordersSheet, "A1:"+lastHeader, nil)

	for i, o := range orders {
		row := []interface{}{
			o.ID,
			o.CreatedAt.UTC().Format(time.RFC3339),
			string(o.Status),
			string(o.Priority),
			o.Title,
			o.Subject,
			string(o.Grade),
			string(o.Curriculum),
			string(o.SessionType),
			string(o.PreferredTime),
			o.SessionsPerWeek,
			o.SessionDuration,
			intCell(o.TotalSessions),
			moneyCell(o.ProposedRate),
			moneyCell(o.AgreedRate),
			moneyCell(o.TotalAmount),
			o.Student.User.Name,
			o.Student.User.Email,
			o.Teacher.User.Name,
			o.Teacher.User.Email,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("set row %d: %w", i+2, err)
		}
	}

	if len(orders) > 0 {
		money, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
		if err != nil {
			return nil, fmt.Errorf("money style: %w", err)
		}
		if err := f.SetCellStyle(ordersSheet, "N2", fmt.Sprintf("P%d", len(orders)+1), money); err != nil {
			return nil, fmt.Errorf("money cells: %w", err)
		}
	}

	_ = f.SetColWidth(ordersSheet, "A", "A", 8)
	_ = f.SetColWidth(ordersSheet, "B", "B", 22)
	_ = f.SetColWidth(ordersSheet, "E", "E", 36)
	return f, nil
}

func intCell(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func moneyCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
