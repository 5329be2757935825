package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

// DashboardStats is the admin overview.
type DashboardStats struct {
	Customers           int64   `json:"customers"`
	ActiveAgents        int64   `json:"active_agents"`
	Bookings            int64   `json:"bookings"`
	ActiveBookings      int64   `json:"active_bookings"`
	CompletedBookings   int64   `json:"completed_bookings"`
	PendingApplications int64   `json:"pending_applications"`
	Revenue             float64 `json:"revenue"`
}

type ReportService struct {
	bookings BookingStore
	agents   AgentStore
	apps     ApplicationStore
	users    UserStore
	clock    Clock
}

func NewReportService(bookings BookingStore, agents AgentStore, apps ApplicationStore, users UserStore) *ReportService {
	return &ReportService{bookings: bookings, agents: agents, apps: apps, users: users}
}

func (s *ReportService) Stats(ctx context.Context) (*DashboardStats, error) {
	var (
		stats DashboardStats
		err   error
	)
	if stats.Customers, err = s.users.CountByRole(ctx, models.RoleCustomer); err != nil {
		return nil, err
	}
	if stats.ActiveAgents, err = s.agents.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.Bookings, err = s.bookings.Count(ctx); err != nil {
		return nil, err
	}
	if stats.ActiveBookings, err = s.bookings.Count(ctx, openStatuses...); err != nil {
		return nil, err
	}
	if stats.CompletedBookings, err = s.bookings.Count(ctx, models.BookingStatusCompleted); err != nil {
		return nil, err
	}
	if stats.PendingApplications, err = s.apps.CountPending(ctx); err != nil {
		return nil, err
	}
	if stats.Revenue, err = s.bookings.PaidRevenue(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

var exportColumns = []struct {
	label string
	width float64
	value func(b models.Booking) interface{}
}{
	{"Booking", 12, func(b models.Booking) interface{} { return b.DisplayID }},
	{"Created", 20, func(b models.Booking) interface{} { return b.CreatedAt.Format("2006-01-02 15:04") }},
	{"Status", 14, func(b models.Booking) interface{} { return string(b.Status) }},
	{"Category", 16, func(b models.Booking) interface{} { return b.CategoryName }},
	{"Brand", 16, func(b models.Booking) interface{} { return b.BrandName }},
	{"Model", 22, func(b models.Booking) interface{} { return b.Model }},
	{"Faults", 36, func(b models.Booking) interface{} {
		names := make([]string, len(b.Faults))
		for i, f := range b.Faults {
			names[i] = f.Name
		}
		return strings.Join(names, ", ")
	}},
	{"Service", 20, func(b models.Booking) interface{} { return string(b.ServiceType) }},
	{"Duration", 12, func(b models.Booking) interface{} { return b.DurationType }},
	{"Payment", 10, func(b models.Booking) interface{} { return string(b.PaymentMethod) }},
	{"Payment Status", 16, func(b models.Booking) interface{} { return string(b.PaymentStatus) }},
	{"Total", 12, func(b models.Booking) interface{} { return b.TotalAmount }},
	{"Rating", 8, func(b models.Booking) interface{} {
		if b.ReviewRating == nil {
			return ""
		}
		return *b.ReviewRating
	}},
}

// ExportBookings renders the bookings matching status as an xlsx workbook.
func (s *ReportService) ExportBookings(ctx context.Context, status models.BookingStatus) (*bytes.Buffer, string, error) {
	if status != "" && !status.Valid() {
		return nil, "", apperr.Validation("unknown booking status %q", status)
	}
	bookings, _, err := s.bookings.List(ctx, models.BookingFilter{Status: status})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Bookings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", apperr.Dependency(err, "failed to build export")
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for col, c := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, c.label)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(col + 1)
		f.SetColWidth(sheet, name, name, c.width)
	}
	for row, b := range bookings {
		for col, c := range exportColumns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, c.value(b))
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", apperr.Dependency(err, "failed to build export")
	}
	filename := fmt.Sprintf("bookings_%s.xlsx", s.clock.now().Format("20060102_150405"))
	return buf, filename, nil
}
