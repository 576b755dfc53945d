package console

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ReportStatus is the triage state of an incident report.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "Pending"
	ReportStatusInProgress ReportStatus = "In Progress"
	ReportStatusResolved   ReportStatus = "Resolved"
)

// ReportCategories are the incident categories the service accepts.
var ReportCategories = []string{
	"Fire",
	"Flood",
	"Earthquake",
	"Storm",
	"Accident",
	"Medical Emergency",
	"Other",
}

// Report is an incident report record.
type Report struct {
	ID          string       `json:"_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category,omitempty"`
	Location    string       `json:"location,omitempty"`
	Status      ReportStatus `json:"status,omitempty"`
	MediaURL    string       `json:"mediaUrl,omitempty"`
	ReporterID  string       `json:"reporter,omitempty"`
	CreatedAt   *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty"`
}

// ReportDraft is the writable subset used for create and update.
type ReportDraft struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	Category    string `form:"category" json:"category,omitempty"`
	Location    string `form:"location" json:"location,omitempty"`
	MediaURL    string `form:"media_url" json:"mediaUrl,omitempty"`
}

// ReportStats is the aggregate view behind the dashboard.
type ReportStats struct {
	TotalReports    int      `json:"totalReports"`
	PendingReports  int      `json:"pendingReports"`
	ResolvedReports int      `json:"resolvedReports"`
	RecentReports   []Report `json:"recentReports,omitempty"`
}

// ReportsAPI wraps the /reports endpoints for the reporting user.
type ReportsAPI struct {
	gw *Gateway
}

func NewReportsAPI(gw *Gateway) *ReportsAPI {
	return &ReportsAPI{gw: gw}
}

func (r *ReportsAPI) List(ctx context.Context) ([]Report, error) {
	reports := []Report{}
	if err := r.gw.Do(ctx, http.MethodGet, "/reports", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ReportsAPI) Get(ctx context.Context, id string) (Report, error) {
	report := Report{}
	if err := r.gw.Do(ctx, http.MethodGet, "/reports/"+id, nil, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}

func (r *ReportsAPI) Create(ctx context.Context, draft ReportDraft) (Report, error) {
	report := Report{}
	if err := r.gw.Do(ctx, http.MethodPost, "/reports", draft, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}

func (r *ReportsAPI) Update(ctx context.Context, id string, draft ReportDraft) (Report, error) {
	report := Report{}
	if err := r.gw.Do(ctx, http.MethodPut, "/reports/"+id, draft, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}

func (r *ReportsAPI) Delete(ctx context.Context, id string) error {
	return r.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/reports/%s", id), nil, nil)
}

func (r *ReportsAPI) Stats(ctx context.Context) (ReportStats, error) {
	stats := ReportStats{}
	if err := r.gw.Do(ctx, http.MethodGet, "/reports/stats/data", nil, &stats); err != nil {
		return ReportStats{}, err
	}
	return stats, nil
}
