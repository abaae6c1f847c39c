package activity

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, actor *coreuser.User, filter ListFilter) ([]*Entry, int64, error)
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

// ListActivity handles GET /activity
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, offset := h.Pagination(r)
	filter := ListFilter{
		TargetType: TargetType(q.Get("target_type")),
		Limit:      limit,
		Offset:     offset,
	}
	if v := q.Get("target_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			h.WriteError(w, http.StatusBadRequest, "invalid target_id")
			return
		}
		filter.TargetID = id
	}
	if v := q.Get("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			h.WriteError(w, http.StatusBadRequest, "invalid actor_id")
			return
		}
		filter.ActorID = id
	}

	entries, total, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"activity": entries,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}
