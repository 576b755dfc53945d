package console

import (
	"context"
	"net/http"
	"time"
)

// AdminStats is the aggregate view behind the admin panel.
type AdminStats struct {
	TotalUsers      int `json:"totalUsers"`
	ActiveUsers     int `json:"activeUsers"`
	TotalReports    int `json:"totalReports"`
	PendingReports  int `json:"pendingReports"`
	ResolvedReports int `json:"resolvedReports"`
}

// AuditLog is one entry of the server-side audit trail, visible to
// superadmins only.
type AuditLog struct {
	ID         string         `json:"_id,omitempty"`
	ActorID    string         `json:"actor,omitempty"`
	Action     string         `json:"action,omitempty"`
	TargetID   string         `json:"target,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt *time.Time     `json:"createdAt,omitempty"`
}

type verifySuperadminResponse struct {
	User User `json:"user"`
}

// AdminAPI wraps the /admin endpoints. Every call requires an admin
// session; role enforcement is server-side, the client merely forwards the
// bearer token.
type AdminAPI struct {
	gw *Gateway
}

func NewAdminAPI(gw *Gateway) *AdminAPI {
	return &AdminAPI{gw: gw}
}

func (a *AdminAPI) Stats(ctx context.Context) (AdminStats, error) {
	stats := AdminStats{}
	if err := a.gw.Do(ctx, http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return AdminStats{}, err
	}
	return stats, nil
}

func (a *AdminAPI) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := a.gw.Do(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserRole asks the server to assign a new role. Role changes are
// server-authoritative; refresh any cached profile for the affected account
// after this call.
func (a *AdminAPI) UpdateUserRole(ctx context.Context, userID string, role UserRole) error {
	payload := map[string]string{"role": string(role)}
	return a.gw.Do(ctx, http.MethodPut, "/admin/users/"+userID+"/role", payload, nil)
}

func (a *AdminAPI) DeactivateUser(ctx context.Context, userID string) error {
	return a.gw.Do(ctx, http.MethodPut, "/admin/users/"+userID+"/deactivate", nil, nil)
}

// NominateSuperadmin starts the out-of-band promotion protocol for another
// admin's account; the server emails the nominee a one-time 6-digit code.
func (a *AdminAPI) NominateSuperadmin(ctx context.Context, userID string) error {
	return a.gw.Do(ctx, http.MethodPost, "/admin/users/"+userID+"/nominate-superadmin", nil, nil)
}

// VerifySuperadmin submits the nominee's email and code; on acceptance the
// response carries the updated account record.
func (a *AdminAPI) VerifySuperadmin(ctx context.Context, email, code string) (User, error) {
	payload := map[string]string{
		"email": email,
		"code":  code,
	}
	res := verifySuperadminResponse{}
	if err := a.gw.Do(ctx, http.MethodPost, "/admin/verify-superadmin", payload, &res); err != nil {
		return User{}, err
	}
	return res.User, nil
}

func (a *AdminAPI) ListReports(ctx context.Context) ([]Report, error) {
	reports := []Report{}
	if err := a.gw.Do(ctx, http.MethodGet, "/admin/reports", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (a *AdminAPI) UpdateReportStatus(ctx context.Context, reportID string, status ReportStatus) error {
	payload := map[string]string{"status": string(status)}
	return a.gw.Do(ctx, http.MethodPut, "/admin/reports/"+reportID+"/status", payload, nil)
}

func (a *AdminAPI) DeleteReport(ctx context.Context, reportID string) error {
	return a.gw.Do(ctx, http.MethodDelete, "/admin/reports/"+reportID, nil, nil)
}

func (a *AdminAPI) AuditLogs(ctx context.Context) ([]AuditLog, error) {
	logs := []AuditLog{}
	if err := a.gw.Do(ctx, http.MethodGet, "/admin/audit-logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
