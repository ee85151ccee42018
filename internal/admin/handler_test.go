package admin_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helpdeskhq/helpdesk-portal/internal/admin"
)

// Stub service for handler-level tests.
type stubReportService struct {
	adminRows     []admin.AdminReportRow
	equipmentRows []admin.EquipmentReportRow
	auditFilter   admin.AuditFilter
	from, to      *time.Time
}

func (s *stubReportService) Stats() (*admin.Stats, error) {
	return &admin.Stats{Users: 4, Equipment: 3, OpenRequests: 2}, nil
}

func (s *stubReportService) RequestStatsReport() (*admin.RequestStats, error) {
	return &admin.RequestStats{ByStatus: map[string]int64{}, BySource: map[string]int64{}}, nil
}

func (s *stubReportService) DailyStatsReport(days int) ([]admin.DailyBucket, error) {
	return make([]admin.DailyBucket, days), nil
}

func (s *stubReportService) RequestsByAdmin(from, to *time.Time) ([]admin.AdminReportRow, error) {
	s.from, s.to = from, to
	return s.adminRows, nil
}

func (s *stubReportService) RequestsByEquipment(from, to *time.Time, typeFilter, location string) ([]admin.EquipmentReportRow, error) {
	s.from, s.to = from, to
	return s.equipmentRows, nil
}

func (s *stubReportService) AuditLogs(filter admin.AuditFilter) ([]*admin.AuditLog, error) {
	s.auditFilter = filter
	return nil, nil
}

var _ = Describe("Admin Handler", func() {
	var (
		service *stubReportService
		handler *admin.Handler
	)

	floatPtr := func(f float64) *float64 { return &f }

	BeforeEach(func() {
		service = &stubReportService{}
		handler = admin.NewHandler(service)
	})

	Describe("RequestsByAdminCSV", func() {
		It("should render the report as comma separated rows", func() {
			service.adminRows = []admin.AdminReportRow{
				{ExecutorID: 2, Name: "Webb Marcus", Total: 3, Closed: 2, Open: 1},
			}

			req := httptest.NewRequest(http.MethodGet, "/admin/reports/requests-by-admin/csv", nil)
			w := httptest.NewRecorder()
			handler.RequestsByAdminCSV(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("text/csv"))
			Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring("requests-by-admin.csv"))

			lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
			Expect(lines).To(HaveLen(2))
			Expect(lines[0]).To(Equal("executorId,name,total,closed,open"))
			Expect(lines[1]).To(Equal(`2,"Webb Marcus",3,2,1`))
		})

		It("should double embedded quotes in names", func() {
			service.adminRows = []admin.AdminReportRow{
				{ExecutorID: 2, Name: `Webb "Max" Marcus`, Total: 1},
			}

			req := httptest.NewRequest(http.MethodGet, "/admin/reports/requests-by-admin/csv", nil)
			w := httptest.NewRecorder()
			handler.RequestsByAdminCSV(w, req)

			Expect(w.Body.String()).To(ContainSubstring(`"Webb ""Max"" Marcus"`))
		})

		It("should pass the date range through to the service", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin/reports/requests-by-admin/csv?dateFrom=2026-08-01&dateTo=2026-08-28", nil)
			w := httptest.NewRecorder()
			handler.RequestsByAdminCSV(w, req)

			Expect(service.from).NotTo(BeNil())
			Expect(service.from.Format("2006-01-02")).To(Equal("2026-08-01"))
			Expect(service.to).NotTo(BeNil())
			Expect(service.to.Format("2006-01-02")).To(Equal("2026-08-28"))
		})
	})

	Describe("RequestsByEquipmentCSV", func() {
		It("should prefix the header with a UTF-8 BOM", func() {
			service.equipmentRows = []admin.EquipmentReportRow{
				{EquipmentID: 1, Name: "HP LaserJet", Type: "printer", Location: "Floor 1",
					Total: 3, Open: 1, Closed: 2, Overdue: 1, AvgResolutionHours: floatPtr(2.5), Repeat: 2},
			}

			req := httptest.NewRequest(http.MethodGet, "/admin/reports/requests-by-equipment/csv", nil)
			w := httptest.NewRecorder()
			handler.RequestsByEquipmentCSV(w, req)

			body := w.Body.String()
			Expect(strings.HasPrefix(body, "\uFEFF")).To(BeTrue())

			lines := strings.Split(strings.TrimRight(strings.TrimPrefix(body, "\uFEFF"), "\n"), "\n")
			Expect(lines[0]).To(Equal("equipmentId,name,type,location,total,open,closed,overdue,avgResolutionHours,repeat"))
			Expect(lines[1]).To(Equal(`1,"HP LaserJet","printer","Floor 1",3,1,2,1,2.50,2`))
		})

		It("should leave the average blank when no ticket resolved", func() {
			service.equipmentRows = []admin.EquipmentReportRow{
				{EquipmentID: 1, Name: "HP LaserJet", Type: "printer", Location: "Floor 1", Total: 1, Open: 1},
			}

			req := httptest.NewRequest(http.MethodGet, "/admin/reports/requests-by-equipment/csv", nil)
			w := httptest.NewRecorder()
			handler.RequestsByEquipmentCSV(w, req)

			Expect(w.Body.String()).To(ContainSubstring(`1,"HP LaserJet","printer","Floor 1",1,1,0,0,,0`))
		})
	})

	Describe("AuditLogs", func() {
		It("should build the filter from the query string", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin/audit-log?type=user_created&entityType=user&userId=7&dateFrom=2026-08-01", nil)
			w := httptest.NewRecorder()
			handler.AuditLogs(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(service.auditFilter.ActionType).To(Equal("user_created"))
			Expect(service.auditFilter.EntityType).To(Equal("user"))
			Expect(service.auditFilter.UserID).NotTo(BeNil())
			Expect(*service.auditFilter.UserID).To(Equal(int64(7)))
			Expect(service.auditFilter.DateFrom).NotTo(BeNil())
		})

		It("should ignore a malformed user id", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin/audit-log?userId=abc", nil)
			w := httptest.NewRecorder()
			handler.AuditLogs(w, req)

			Expect(service.auditFilter.UserID).To(BeNil())
		})
	})

	Describe("DailyStats", func() {
		It("should default to seven days", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin/stats/daily", nil)
			w := httptest.NewRecorder()
			handler.DailyStats(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(strings.Count(w.Body.String(), `"date"`)).To(Equal(7))
		})

		It("should honor an explicit day count", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin/stats/daily?days=3", nil)
			w := httptest.NewRecorder()
			handler.DailyStats(w, req)

			Expect(strings.Count(w.Body.String(), `"date"`)).To(Equal(3))
		})
	})
})
