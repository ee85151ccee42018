package admin

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal/transport"
	"github.com/helpdeskhq/helpdesk-portal/pkg/logger"
)

type ServiceAPI interface {
	Stats() (*Stats, error)
	RequestStatsReport() (*RequestStats, error)
	DailyStatsReport(days int) ([]DailyBucket, error)
	RequestsByAdmin(from, to *time.Time) ([]AdminReportRow, error)
	RequestsByEquipment(from, to *time.Time, typeFilter, location string) ([]EquipmentReportRow, error)
	AuditLogs(filter AuditFilter) ([]*AuditLog, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) RequestStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.RequestStatsReport()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) DailyStats(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}

	buckets, err := h.Service.DailyStatsReport(days)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, buckets)
}

func (h *Handler) RequestsByAdmin(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	rows, err := h.Service.RequestsByAdmin(from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) RequestsByAdminCSV(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	rows, err := h.Service.RequestsByAdmin(from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("executorId,name,total,closed,open\n")
	for _, row := range rows {
		fmt.Fprintf(&sb, "%d,%s,%d,%d,%d\n",
			row.ExecutorID, csvQuote(row.Name), row.Total, row.Closed, row.Open)
	}

	writeCSV(w, "requests-by-admin.csv", sb.String())
}

func (h *Handler) RequestsByEquipment(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	rows, err := h.Service.RequestsByEquipment(from, to, r.URL.Query().Get("type"), r.URL.Query().Get("location"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rows)
}

// RequestsByEquipmentCSV mirrors the JSON report. The header carries a BOM
// so spreadsheet imports detect UTF-8; the admin report does not.
func (h *Handler) RequestsByEquipmentCSV(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)
	rows, err := h.Service.RequestsByEquipment(from, to, r.URL.Query().Get("type"), r.URL.Query().Get("location"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("\uFEFF" + "equipmentId,name,type,location,total,open,closed,overdue,avgResolutionHours,repeat\n")
	for _, row := range rows {
		avg := ""
		if row.AvgResolutionHours != nil {
			avg = strconv.FormatFloat(*row.AvgResolutionHours, 'f', 2, 64)
		}
		fmt.Fprintf(&sb, "%d,%s,%s,%s,%d,%d,%d,%d,%s,%d\n",
			row.EquipmentID, csvQuote(row.Name), csvQuote(row.Type), csvQuote(row.Location),
			row.Total, row.Open, row.Closed, row.Overdue, avg, row.Repeat)
	}

	writeCSV(w, "requests-by-equipment.csv", sb.String())
}

func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	filter := AuditFilter{
		ActionType: r.URL.Query().Get("type"),
		EntityType: r.URL.Query().Get("entityType"),
	}
	if v := r.URL.Query().Get("userId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.UserID = &id
		}
	}
	filter.DateFrom, filter.DateTo = dateRange(r)

	logs, err := h.Service.AuditLogs(filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, logs)
}

func dateRange(r *http.Request) (*time.Time, *time.Time) {
	parse := func(s string) *time.Time {
		if s == "" {
			return nil
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return &t
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return &t
		}
		return nil
	}
	return parse(r.URL.Query().Get("dateFrom")), parse(r.URL.Query().Get("dateTo"))
}

// csvQuote always double-quotes, doubling embedded quotes.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
