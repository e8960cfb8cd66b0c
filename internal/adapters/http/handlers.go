package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gymroster/internal/application/listutil"
	"gymroster/internal/application/orchestrators"
	"gymroster/internal/application/projections"
	"gymroster/internal/domain/member"
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// writeMutationError maps orchestrator failures onto status codes.
func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case member.IsValidError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, member.ErrNotFound):
		http.Error(w, "member not found", http.StatusNotFound)
	default:
		internalError(w, err)
	}
}

// handleSearchMembers handles GET /api/members/search
func (a *api) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageParams := listutil.ParsePageParams(q)
	filter := listutil.ParseFilterParams(q)

	page, err := projections.QuerySearchDirectory(r.Context(), projections.SearchDirectoryQuery{
		Search:   filter.Search,
		Status:   filter.Status,
		Page:     pageParams.Page,
		PageSize: pageParams.PageSize,
		Today:    a.now(),
	}, projections.SearchDirectoryDeps{
		MemberStore: a.stores.MemberStore,
		Cache:       a.stores.Cache,
		Flight:      &a.flight,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleExpiredMembers handles GET /api/members/expired
func (a *api) handleExpiredMembers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := projections.QueryListExpired(r.Context(), projections.ListExpiredQuery{
		Today: a.now(),
		Limit: limit,
	}, projections.ListExpiredDeps{MemberStore: a.stores.MemberStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type addMemberRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	JoinDate   string `json:"join_date"`
	PlanMonths int    `json:"plan_months"`
}

// handleAddMember handles POST /api/members
func (a *api) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	joinDate := a.now()
	if req.JoinDate != "" {
		d, err := member.ParseDate(req.JoinDate)
		if err != nil {
			http.Error(w, "join_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		joinDate = d
	}

	m, err := orchestrators.ExecuteAddMember(r.Context(), orchestrators.AddMemberInput{
		Name:       req.Name,
		Phone:      req.Phone,
		JoinDate:   joinDate,
		PlanMonths: req.PlanMonths,
	}, orchestrators.AddMemberDeps{
		MemberStore: a.stores.MemberStore,
		Cache:       a.stores.Cache,
		Now:         a.now,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":          m.ID,
		"expiry_date": m.ExpiryDate.Format(member.DateLayout),
	})
}

type editMemberRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// handleEditMember handles PUT /api/members/{id}
func (a *api) handleEditMember(w http.ResponseWriter, r *http.Request) {
	var req editMemberRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteEditMember(r.Context(), orchestrators.EditMemberInput{
		MemberID: r.PathValue("id"),
		Name:     req.Name,
		Phone:    req.Phone,
	}, orchestrators.EditMemberDeps{
		MemberStore: a.stores.MemberStore,
		Cache:       a.stores.Cache,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteMember handles DELETE /api/members/{id}
func (a *api) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteMember(r.Context(), orchestrators.DeleteMemberInput{
		MemberID: r.PathValue("id"),
	}, orchestrators.DeleteMemberDeps{
		MemberStore: a.stores.MemberStore,
		Cache:       a.stores.Cache,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDashboard handles GET /api/dashboard
func (a *api) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := projections.QueryGetSummary(r.Context(), projections.GetSummaryQuery{Today: a.now()},
		projections.GetSummaryDeps{MemberStore: a.stores.MemberStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handlePerf handles GET /api/perf. window is a Go duration, default 15m.
func (a *api) handlePerf(w http.ResponseWriter, r *http.Request) {
	if a.collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	window := 15 * time.Minute
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "window must be a positive duration", http.StatusBadRequest)
			return
		}
		window = d
	}
	writeJSON(w, http.StatusOK, a.collector.Snapshot(time.Now().Add(-window), 10))
}

// handleHealthz handles GET /healthz
func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
