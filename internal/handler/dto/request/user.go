package request

type RegisterRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	JoinYear int    `json:"join_year" binding:"required"`
	Ronin    bool   `json:"ronin"`
}

type ConsumeTelegramLinkRequest struct {
	Code     string `json:"code" binding:"required"`
	ChatID   int64  `json:"chat_id" binding:"required"`
	Username string `json:"username"`
}
