package leave

import (
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

// SubmitLeaveDTO is the request payload for POST /leaves. Dates are YYYY-MM-DD.
type SubmitLeaveDTO struct {
	UserID    int64   `json:"user_id,omitempty" validate:"omitempty,min=1"`
	Category  string  `json:"category" validate:"required,max=32"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

func (d SubmitLeaveDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

// ToRequest parses the payload; call Validate first.
func (d SubmitLeaveDTO) ToRequest() (Request, error) {
	start, err := calendar.ParseDate(d.StartDate)
	if err != nil {
		return Request{}, validation.Field("start_date", err.Error(), internal.ErrCodeInvalidDate)
	}
	end, err := calendar.ParseDate(d.EndDate)
	if err != nil {
		return Request{}, validation.Field("end_date", err.Error(), internal.ErrCodeInvalidDate)
	}

	var reason *string
	if d.Reason != nil {
		if r := strings.TrimSpace(*d.Reason); r != "" {
			reason = &r
		}
	}

	return Request{
		TargetUserID: d.UserID,
		Category:     d.Category,
		StartDate:    start,
		EndDate:      end,
		Reason:       reason,
	}, nil
}

// ReviewDTO carries the notes of an approve, reject or cancel call.
type ReviewDTO struct {
	Notes string `json:"notes" validate:"max=1000"`
}

func (d ReviewDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

// ListFilter narrows a scoped leave listing. Zero values mean "any".
type ListFilter struct {
	UserID   int64
	Status   Status
	Category Category
	From     time.Time
	To       time.Time
	Mine     bool
	Limit    int
	Offset   int
}
