package response

import (
	"github.com/google/uuid"
)

type LoginResponse struct {
	UserID uuid.UUID `json:"userId"`
}

type TokenRefreshResponse struct {
	Message string `json:"message"`
}
