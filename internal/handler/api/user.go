package api

import (
	"errors"
	"net/http"

	"gearbook/internal/domain/user"
	reqdto "gearbook/internal/handler/dto/request"
	resdto "gearbook/internal/handler/dto/response"
	"gearbook/internal/handler/middleware"
	"gearbook/internal/usecase/commands"
	"gearbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	userCommands commands.UserCommands
	userQueries  queries.UserQueries
}

func NewUserHandler(userCommands commands.UserCommands, userQueries queries.UserQueries) *UserHandler {
	return &UserHandler{
		userCommands: userCommands,
		userQueries:  userQueries,
	}
}

// @Summary Register a new member
// @Tags users
// @Accept json
// @Produce json
// @Param request body reqdto.RegisterRequest true "Registration"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req reqdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	id, err := h.userCommands.Register(c.Request.Context(), commands.RegisterParams{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
		JoinYear: req.JoinYear,
		Ronin:    req.Ronin,
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrLoginAlreadyTaken):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Login already taken",
			})
		case errors.Is(err, user.ErrInvalidLogin):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Login must be 3-64 characters of letters, digits, dot, dash or underscore",
			})
		case errors.Is(err, user.ErrPasswordTooWeak):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Password must be at least 8 characters long",
			})
		case errors.Is(err, user.ErrEmptyName):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Name is required",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id.String()})
}

// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.UserResponse
// @Failure 403 {object} map[string]string
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views, err := h.userQueries.List(c.Request.Context(), actor)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]*resdto.UserResponse, len(views))
	for i, v := range views {
		out[i] = resdto.FromUserView(v)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get user
// @Description Get a user profile. Members may only fetch their own.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} resdto.UserResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID format",
		})
		return
	}

	view, err := h.userQueries.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromUserView(view))
}

// @Summary Grant ronin tier
// @Description Lift a member to the ronin access tier
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id}/ronin [post]
func (h *UserHandler) GrantRonin(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID format",
		})
		return
	}

	if err := h.userCommands.GrantRonin(c.Request.Context(), actor, id); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Generate Telegram link code
// @Description Mint a one-shot code and a bot deep link for the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.TelegramLinkResponse
// @Failure 401 {object} map[string]string
// @Router /users/me/telegram/link [post]
func (h *UserHandler) GenerateTelegramLink(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	link, err := h.userCommands.GenerateTelegramLink(c.Request.Context(), actor.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromTelegramLink(link))
}

// @Summary Consume Telegram link code
// @Description Called by the bot on /start to bind a chat to the user who requested the code
// @Tags users
// @Accept json
// @Produce json
// @Param request body reqdto.ConsumeTelegramLinkRequest true "Link code and chat"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/telegram/consume [post]
func (h *UserHandler) ConsumeTelegramLink(c *gin.Context) {
	var req reqdto.ConsumeTelegramLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	userID, err := h.userCommands.ConsumeTelegramLink(c.Request.Context(), req.Code, req.ChatID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrLinkCodeInvalid):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Link code invalid or expired",
			})
		default:
			h.writeError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID.String()})
}

// @Summary Unlink Telegram
// @Description Detach the Telegram chat from the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string
// @Router /users/me/telegram [delete]
func (h *UserHandler) UnlinkTelegram(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.userCommands.UnlinkTelegram(c.Request.Context(), actor.ID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrForbidden), errors.Is(err, queries.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
	case errors.Is(err, commands.ErrUserNotFound), errors.Is(err, queries.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
