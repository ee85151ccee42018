package admin

import (
	"log/slog"
	"math"
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/equipment"
	"github.com/helpdeskhq/helpdesk-portal/internal/request"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// Repository defines the read queries behind the dashboards and reports.
type Repository interface {
	CountUsers() (int64, error)
	CountEquipment() (int64, error)
	CountOpenRequests() (int64, error)
	ListRequests(from, to *time.Time) ([]*request.Request, error)
	ListEquipment(typeFilter, location string) ([]*equipment.Equipment, error)
	ListAdmins() ([]*user.User, error)
}

type Service struct {
	repo   Repository
	audit  AuditRepository
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, audit AuditRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		audit:  audit,
		now:    time.Now,
		logger: logger,
	}
}

// Stats is the portal dashboard header. Open requests are everything not
// COMPLETED.
type Stats struct {
	Users        int64 `json:"users"`
	Equipment    int64 `json:"equipment"`
	OpenRequests int64 `json:"open_requests"`
}

func (s *Service) Stats() (*Stats, error) {
	users, err := s.repo.CountUsers()
	if err != nil {
		return nil, internal.NewInternalError("could not compute stats", err)
	}
	eq, err := s.repo.CountEquipment()
	if err != nil {
		return nil, internal.NewInternalError("could not compute stats", err)
	}
	open, err := s.repo.CountOpenRequests()
	if err != nil {
		return nil, internal.NewInternalError("could not compute stats", err)
	}
	return &Stats{Users: users, Equipment: eq, OpenRequests: open}, nil
}

// HourlyBucket is one hour of the trailing-24h histogram.
type HourlyBucket struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// RequestStats breaks the ticket population down for the dashboard charts.
type RequestStats struct {
	ByStatus map[string]int64 `json:"by_status"`
	BySource map[string]int64 `json:"by_source"`
	Hourly   []HourlyBucket   `json:"hourly"`
}

// RequestStatsReport builds status/source breakdowns over all tickets and a
// creation histogram over the trailing 24 hours. All 24 hour buckets are
// present even when empty, oldest first, labelled with the local HH:MM of
// the bucket start.
func (s *Service) RequestStatsReport() (*RequestStats, error) {
	all, err := s.repo.ListRequests(nil, nil)
	if err != nil {
		return nil, internal.NewInternalError("could not compute request stats", err)
	}

	stats := &RequestStats{
		ByStatus: make(map[string]int64),
		BySource: make(map[string]int64),
	}
	for _, r := range all {
		stats.ByStatus[r.Status]++
		source := r.Source
		if source == "" {
			source = "UNKNOWN"
		}
		stats.BySource[source]++
	}

	now := s.now()
	start := now.Add(-23 * time.Hour).Truncate(time.Hour)

	index := make(map[string]int, 24)
	buckets := make([]HourlyBucket, 0, 24)
	for i := 0; i < 24; i++ {
		label := start.Add(time.Duration(i) * time.Hour).Format("15:04")
		buckets = append(buckets, HourlyBucket{Hour: label})
		index[label] = i
	}
	for _, r := range all {
		if r.CreatedAt.Before(start) {
			continue
		}
		label := r.CreatedAt.Local().Truncate(time.Hour).Format("15:04")
		if i, ok := index[label]; ok {
			buckets[i].Count++
		}
	}

	stats.Hourly = buckets
	return stats, nil
}

// DailyBucket is one calendar day of portal activity.
type DailyBucket struct {
	Date           string `json:"date"`
	NewRequests    int    `json:"new_requests"`
	ClosedRequests int    `json:"closed_requests"`
	NewUsers       int    `json:"new_users"`
}

// DailyStatsReport pre-seeds one bucket per calendar day ending today.
// Requests count into their creation day, closures into their resolution
// day, and registrations come from the audit trail.
func (s *Service) DailyStatsReport(days int) ([]DailyBucket, error) {
	if days <= 0 {
		days = 7
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := today.AddDate(0, 0, -(days - 1))
	to := today.AddDate(0, 0, 1)

	buckets := make([]DailyBucket, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format("2006-01-02")
		buckets[i] = DailyBucket{Date: date}
		index[date] = i
	}

	requests, err := s.repo.ListRequests(&from, &to)
	if err != nil {
		return nil, internal.NewInternalError("could not compute daily stats", err)
	}
	for _, r := range requests {
		if i, ok := index[r.CreatedAt.Local().Format("2006-01-02")]; ok {
			buckets[i].NewRequests++
		}
	}

	// Closures can happen to tickets created before the window, so they are
	// scanned separately over the full population.
	all, err := s.repo.ListRequests(nil, nil)
	if err != nil {
		return nil, internal.NewInternalError("could not compute daily stats", err)
	}
	for _, r := range all {
		if r.ResolvedAt == nil {
			continue
		}
		if i, ok := index[r.ResolvedAt.Local().Format("2006-01-02")]; ok {
			buckets[i].ClosedRequests++
		}
	}

	registrations, err := s.audit.ListByActionBetween("user_created", from, to)
	if err != nil {
		return nil, internal.NewInternalError("could not compute daily stats", err)
	}
	for _, l := range registrations {
		if i, ok := index[l.CreatedAt.Local().Format("2006-01-02")]; ok {
			buckets[i].NewUsers++
		}
	}

	return buckets, nil
}

// AdminReportRow is the per-executor workload summary. Closed means DONE,
// COMPLETED or REJECTED.
type AdminReportRow struct {
	ExecutorID int64  `json:"executor_id,string"`
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Closed     int    `json:"closed"`
	Open       int    `json:"open"`
}

func (s *Service) RequestsByAdmin(from, to *time.Time) ([]AdminReportRow, error) {
	admins, err := s.repo.ListAdmins()
	if err != nil {
		return nil, internal.NewInternalError("could not build report", err)
	}
	requests, err := s.repo.ListRequests(from, to)
	if err != nil {
		return nil, internal.NewInternalError("could not build report", err)
	}

	rows := make([]AdminReportRow, len(admins))
	index := make(map[int64]int, len(admins))
	for i, a := range admins {
		rows[i] = AdminReportRow{ExecutorID: a.ID, Name: a.FullName()}
		index[a.ID] = i
	}

	for _, r := range requests {
		if r.ExecutorID == nil {
			continue
		}
		i, ok := index[*r.ExecutorID]
		if !ok {
			continue
		}
		rows[i].Total++
		if request.IsClosedStatus(r.Status) {
			rows[i].Closed++
		} else {
			rows[i].Open++
		}
	}

	return rows, nil
}

// EquipmentReportRow summarizes the tickets attached to one hardware unit.
type EquipmentReportRow struct {
	EquipmentID        int64    `json:"equipment_id,string"`
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Location           string   `json:"location"`
	Total              int      `json:"total"`
	Open               int      `json:"open"`
	Closed             int      `json:"closed"`
	Overdue            int      `json:"overdue"`
	AvgResolutionHours *float64 `json:"avg_resolution_hours"`
	Repeat             int      `json:"repeat"`
}

// RequestsByEquipment aggregates per unit. AvgResolutionHours is the mean
// creation-to-resolution time of resolved tickets, nil when none resolved.
// Repeat counts tickets beyond the first. Overdue are open tickets whose
// expected resolution date has passed.
func (s *Service) RequestsByEquipment(from, to *time.Time, typeFilter, location string) ([]EquipmentReportRow, error) {
	units, err := s.repo.ListEquipment(typeFilter, location)
	if err != nil {
		return nil, internal.NewInternalError("could not build report", err)
	}
	requests, err := s.repo.ListRequests(from, to)
	if err != nil {
		return nil, internal.NewInternalError("could not build report", err)
	}

	rows := make([]EquipmentReportRow, len(units))
	index := make(map[int64]int, len(units))
	for i, e := range units {
		rows[i] = EquipmentReportRow{
			EquipmentID: e.ID,
			Name:        e.Name,
			Type:        e.Type,
			Location:    e.Location,
		}
		index[e.ID] = i
	}

	now := s.now()
	resolutionSums := make(map[int64]float64)
	resolutionCounts := make(map[int64]int)

	for _, r := range requests {
		if r.EquipmentID == nil {
			continue
		}
		i, ok := index[*r.EquipmentID]
		if !ok {
			continue
		}
		row := &rows[i]
		row.Total++
		if request.IsClosedStatus(r.Status) {
			row.Closed++
		} else {
			row.Open++
			if r.ExpectedResolutionDate != nil && r.ExpectedResolutionDate.Before(now) {
				row.Overdue++
			}
		}
		if r.ResolvedAt != nil {
			resolutionSums[*r.EquipmentID] += r.ResolvedAt.Sub(r.CreatedAt).Hours()
			resolutionCounts[*r.EquipmentID]++
		}
	}

	for i := range rows {
		id := rows[i].EquipmentID
		if n := resolutionCounts[id]; n > 0 {
			avg := math.Round(resolutionSums[id]/float64(n)*100) / 100
			rows[i].AvgResolutionHours = &avg
		}
		if rows[i].Total > 1 {
			rows[i].Repeat = rows[i].Total - 1
		}
	}

	return rows, nil
}

// AuditLogs lists the trail, newest first.
func (s *Service) AuditLogs(filter AuditFilter) ([]*AuditLog, error) {
	logs, err := s.audit.Query(filter)
	if err != nil {
		s.logger.Error("failed to query audit log", "error", err)
		return nil, internal.NewInternalError("could not query audit log", err)
	}
	return logs, nil
}
