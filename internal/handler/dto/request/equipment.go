package request

import (
	"gearbook/internal/usecase/commands"
)

type ModelRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Category    string         `json:"category" binding:"required"`
	OsnovaOnly  bool           `json:"osnova_only"`
	Attributes  map[string]any `json:"attributes"`
}

func (r ModelRequest) ToParams() commands.ModelParams {
	return commands.ModelParams{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		OsnovaOnly:  r.OsnovaOnly,
		Attributes:  r.Attributes,
	}
}

type SetAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}
