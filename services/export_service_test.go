package services

import (
	"github.com/kendall-kelly/tutoring-orders-api/models"
	"github.com/kendall-kelly/tutoring-orders-api/testutil"
	"github.com/xuri/excelize/v2"
)

func (s *OrderServiceSuite) TestExportOrders_AdminOnly() {
	testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)

	for _, userID := range []uint{s.student.UserID, s.teacher.UserID} {
		_, err := s.svc.ExportOrders(s.ctx, userID, OrderFilter{})
		s.requireCode(err, CodeForbidden)
	}
}

func (s *OrderServiceSuite) TestExportOrders_Workbook() {
	first := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)
	second := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusConfirmed)
	s.Require().NoError(s.db.Model(second).Update("agreed_rate", 45.5).Error)

	buf, err := s.svc.ExportOrders(s.ctx, s.admin.ID, OrderFilter{})
	s.Require().NoError(err)

	f, err := excelize.OpenReader(buf)
	s.Require().NoError(err)
	defer f.Close()

	s.Equal([]string{"Orders"}, f.GetSheetList())

	rows, err := f.GetRows("Orders")
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal(exportHeader, rows[0])

	// newest first
	s.Equal(second.Title, rows[1][4])
	s.Equal("CONFIRMED", rows[1][2])
	s.Equal("45.50", rows[1][14])
	s.Equal("500.00", rows[1][15])
	s.Equal(s.teacher.User.Email, rows[1][19])

	s.Equal(first.Title, rows[2][4])
	s.Equal("50.00", rows[2][13])
	s.Equal(s.student.User.Name, rows[2][16])
}

func (s *OrderServiceSuite) TestBuildOrdersWorkbook_MoneyCellsAreNumeric() {
	order := testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusConfirmed)
	order.AgreedRate = ptr(45.5)

	f, err := BuildOrdersWorkbook([]models.Order{*order})
	s.Require().NoError(err)
	defer f.Close()

	for cell, want := range map[string]string{"N2": "50", "O2": "45.5", "P2": "500"} {
		raw, err := f.GetCellValue("Orders", cell, excelize.Options{RawCellValue: true})
		s.Require().NoError(err)
		s.Equal(want, raw, cell)

		styleID, err := f.GetCellStyle("Orders", cell)
		s.Require().NoError(err)
		style, err := f.GetStyle(styleID)
		s.Require().NoError(err)
		s.Equal(moneyNumFmt, style.NumFmt, cell)
	}

	formatted, err := f.GetCellValue("Orders", "O2")
	s.Require().NoError(err)
	s.Equal("45.50", formatted)
}

func (s *OrderServiceSuite) TestExportOrders_Filtered() {
	testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusPending)
	testutil.CreateOrder(s.T(), s.db, s.student, s.teacher, models.StatusCancelled)

	buf, err := s.svc.ExportOrders(s.ctx, s.admin.ID, OrderFilter{Status: ptr(models.StatusCancelled)})
	s.Require().NoError(err)

	f, err := excelize.OpenReader(buf)
	s.Require().NoError(err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *OrderServiceSuite) TestBuildOrdersWorkbook_EmptyValues() {
	f, err := BuildOrdersWorkbook([]models.Order{{ID: 1, Status: models.StatusPending, Title: "Untitled"}})
	s.Require().NoError(err)
	defer f.Close()

	sessions, err := f.GetCellValue("Orders", "M2")
	s.Require().NoError(err)
	s.Equal("", sessions)

	rate, err := f.GetCellValue("Orders", "N2")
	s.Require().NoError(err)
	s.Equal("", rate)
}
