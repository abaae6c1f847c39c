package leave

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Submit(ctx context.Context, actor *coreuser.User, dto SubmitLeaveDTO) (*Leave, error)
	Approve(ctx context.Context, actor *coreuser.User, leaveID int64, notes string) (*Leave, error)
	Reject(ctx context.Context, actor *coreuser.User, leaveID int64, notes string) (*Leave, error)
	Cancel(ctx context.Context, actor *coreuser.User, leaveID int64, notes string) (*Leave, error)
	GetByID(ctx context.Context, actor *coreuser.User, leaveID int64) (*Leave, error)
	List(ctx context.Context, actor *coreuser.User, filter ListFilter) ([]*Leave, int64, error)
	History(ctx context.Context, actor *coreuser.User, leaveID int64) ([]*History, error)
	Balance(ctx context.Context, actor *coreuser.User, userID int64, year int) (*Balance, error)
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

// SubmitLeave handles POST /leaves
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto SubmitLeaveDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	l, err := h.Service.Submit(r.Context(), actor, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, l)
}

// ListLeaves handles GET /leaves
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	filter.Limit, filter.Offset = h.Pagination(r)

	leaves, total, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leaves": leaves,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetLeave handles GET /leaves/{id}
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	l, err := h.Service.GetByID(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

// GetLeaveHistory handles GET /leaves/{id}/history
func (h *Handler) GetLeaveHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.Service.History(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// ApproveLeave handles PATCH /leaves/{id}/approve
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Approve)
}

// RejectLeave handles PATCH /leaves/{id}/reject
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Reject)
}

// CancelLeave handles PATCH /leaves/{id}/cancel
func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Cancel)
}

type reviewFunc func(ctx context.Context, actor *coreuser.User, leaveID int64, notes string) (*Leave, error)

func (h *Handler) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	actor, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	var dto ReviewDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.WriteAppError(w, err)
			return
		}
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	l, err := fn(r.Context(), actor, id, dto.Notes)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, l)
}

// GetBalance handles GET /users/{id}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1970 || y > 9999 {
			h.WriteAppError(w, validation.Field("year", "year must be a four-digit year", internal.ErrCodeValidationFailed))
			return
		}
		year = y
	}

	b, err := h.Service.Balance(r.Context(), actor, id, year)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter

	if v := q.Get("status"); v != "" {
		st, err := ParseStatus(v)
		if err != nil {
			return f, validation.Field("status", err.Error(), internal.ErrCodeValidationFailed)
		}
		f.Status = st
	}
	if v := q.Get("category"); v != "" {
		c, err := ParseCategory(v)
		if err != nil {
			return f, internal.ErrInvalidCategory
		}
		f.Category = c
	}
	if v := q.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, validation.Field("user_id", "user_id must be a positive integer", internal.ErrCodeValidationFailed)
		}
		f.UserID = id
	}
	if v := q.Get("from"); v != "" {
		t, err := calendar.ParseDate(v)
		if err != nil {
			return f, validation.Field("from", err.Error(), internal.ErrCodeInvalidDate)
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := calendar.ParseDate(v)
		if err != nil {
			return f, validation.Field("to", err.Error(), internal.ErrCodeInvalidDate)
		}
		f.To = t
	}
	if v := q.Get("mine"); v != "" {
		f.Mine, _ = strconv.ParseBool(v)
	}
	return f, nil
}
