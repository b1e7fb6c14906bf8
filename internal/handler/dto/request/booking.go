package request

import (
	"time"

	"gearbook/internal/usecase/commands"
)

type BookingLineRequest struct {
	ModelName string `json:"model_name" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type CreateBookingRequest struct {
	Reason    string               `json:"reason" binding:"required"`
	StartTime time.Time            `json:"start_time" binding:"required"`
	EndTime   time.Time            `json:"end_time" binding:"required"`
	Comment   *string              `json:"comment,omitempty"`
	Equipment []BookingLineRequest `json:"equipment"`
}

func (r CreateBookingRequest) ToParams() commands.CreateBookingParams {
	lines := make([]commands.BookingLine, 0, len(r.Equipment))
	for _, l := range r.Equipment {
		lines = append(lines, commands.BookingLine{ModelName: l.ModelName, Quantity: l.Quantity})
	}
	return commands.CreateBookingParams{
		Reason:    r.Reason,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Comment:   r.Comment,
		Equipment: lines,
	}
}

type DecisionRequest struct {
	Comment *string `json:"comment,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type SetReturnedRequest struct {
	Returned *bool `json:"returned" binding:"required"`
}
