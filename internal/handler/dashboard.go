package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/dto"
	"github.com/tableside/api/internal/ws"
	"github.com/xuri/excelize/v2"
)

// DashboardStore defines the database methods needed by admin reports.
// Satisfied by *database.Queries; narrow interface for testability.
type DashboardStore interface {
	GetDashboardStats(ctx context.Context, arg database.GetDashboardStatsParams) (database.GetDashboardStatsRow, error)
	ListSettledBillsBetween(ctx context.Context, arg database.ListSettledBillsBetweenParams) ([]database.ListSettledBillsBetweenRow, error)
}

// RealtimeStats reports live connection counts. Satisfied by *ws.Hub.
type RealtimeStats interface {
	Stats() ws.Stats
}

// DashboardHandler handles admin dashboard and report endpoints.
type DashboardHandler struct {
	store    DashboardStore
	realtime RealtimeStats
	now      func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store DashboardStore, realtime RealtimeStats) *DashboardHandler {
	return &DashboardHandler{store: store, realtime: realtime, now: time.Now}
}

// RegisterRoutes registers admin endpoints.
// Expected to be mounted at /api/admin
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/reports/sales.xlsx", h.SalesSheet)
	r.Get("/realtime", h.Realtime)
}

// --- Response types ---

type dashboardResponse struct {
	TodayRevenue   string `json:"today_revenue"`
	ActiveOrders   int64  `json:"active_orders"`
	OccupiedTables int64  `json:"occupied_tables"`
	TotalTables    int64  `json:"total_tables"`
	TodayOrders    int64  `json:"today_orders"`
}

var salesHeader = []interface{}{
	"Bill", "Order", "Table", "Subtotal", "Tax", "Discount", "Total", "Method", "Paid", "Change", "Paid At",
}

// dayBounds returns [start, start+24h) of the day containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// --- Handlers ---

// Dashboard returns today's counters.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start, end := dayBounds(h.now())

	row, err := h.store.GetDashboardStats(r.Context(), database.GetDashboardStatsParams{
		DayStart: start,
		DayEnd:   end,
	})
	if err != nil {
		writeInternal(w, "get dashboard stats", err)
		return
	}

	writeData(w, http.StatusOK, dashboardResponse{
		TodayRevenue:   dto.NumericToString(row.TodayRevenue),
		ActiveOrders:   row.ActiveOrders,
		OccupiedTables: row.OccupiedTables,
		TotalTables:    row.TotalTables,
		TodayOrders:    row.TodayOrders,
	})
}

// SalesSheet handles GET /api/admin/reports/sales.xlsx?date=YYYY-MM-DD and
// streams the settled bills of that day as a spreadsheet.
func (h *DashboardHandler) SalesSheet(w http.ResponseWriter, r *http.Request) {
	day := h.now()
	if s := r.URL.Query().Get("date"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, day.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
			return
		}
		day = t
	}
	start, end := dayBounds(day)

	rows, err := h.store.ListSettledBillsBetween(r.Context(), database.ListSettledBillsBetweenParams{
		Start: start,
		End:   end,
	})
	if err != nil {
		writeInternal(w, "list settled bills", err)
		return
	}

	data, err := buildSalesSheet(rows)
	if err != nil {
		writeInternal(w, "build sales sheet", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sales-%s.xlsx"`, start.Format("2006-01-02")))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func buildSalesSheet(rows []database.ListSettledBillsBetweenRow) ([]byte, error) {
	const sheet = "Sales"

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("close sales sheet: %v", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &salesHeader); err != nil {
		return nil, err
	}

	for i, row := range rows {
		paidAt := ""
		if row.PaidAt.Valid {
			paidAt = row.PaidAt.Time.Format(time.RFC3339)
		}
		method := ""
		if row.PaymentMethod.Valid {
			method = row.PaymentMethod.String
		}
		values := []interface{}{
			row.BillNumber,
			row.OrderNumber,
			row.TableNumber,
			dto.NumericToString(row.Subtotal),
			dto.NumericToString(row.Tax),
			dto.NumericToString(row.Discount),
			dto.NumericToString(row.TotalAmount),
			method,
			dto.NumericToString(row.PaidAmount),
			dto.NumericToString(row.ChangeAmount),
			paidAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Realtime returns websocket hub statistics.
func (h *DashboardHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.realtime.Stats())
}
