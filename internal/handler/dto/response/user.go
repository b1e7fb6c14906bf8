package response

import (
	"time"

	"gearbook/internal/usecase/commands"
	"gearbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type UserResponse struct {
	ID               uuid.UUID `json:"id"`
	Login            string    `json:"login"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	JoinYear         int       `json:"joinYear"`
	TelegramUsername *string   `json:"telegramUsername,omitempty"`
	TelegramLinked   bool      `json:"telegramLinked"`
	Banned           bool      `json:"banned"`
	CreatedAt        time.Time `json:"createdAt"`
}

func FromUserView(rm *queries.UserView) *UserResponse {
	var resp UserResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}

type TelegramLinkResponse struct {
	Code    string `json:"code"`
	DeepURL string `json:"deepUrl"`
}

func FromTelegramLink(link *commands.TelegramLink) *TelegramLinkResponse {
	return &TelegramLinkResponse{
		Code:    link.Code,
		DeepURL: link.DeepURL,
	}
}
