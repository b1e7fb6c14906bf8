package api

import (
	"errors"
	"net/http"
	"time"

	"gearbook/internal/domain/booking"
	"gearbook/internal/domain/equipment"
	reqdto "gearbook/internal/handler/dto/request"
	resdto "gearbook/internal/handler/dto/response"
	"gearbook/internal/handler/middleware"
	"gearbook/internal/usecase/commands"
	"gearbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EquipmentHandler struct {
	equipmentCommands commands.EquipmentCommands
	equipmentQueries  queries.EquipmentQueries
}

func NewEquipmentHandler(equipmentCommands commands.EquipmentCommands, equipmentQueries queries.EquipmentQueries) *EquipmentHandler {
	return &EquipmentHandler{
		equipmentCommands: equipmentCommands,
		equipmentQueries:  equipmentQueries,
	}
}

// @Summary List equipment models
// @Description List the whole catalog
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param bookable query bool false "Only models the current user may book"
// @Param category query string false "Category filter"
// @Param q query string false "Name fragment filter"
// @Success 200 {array} resdto.ModelResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /equipment/models [get]
func (h *EquipmentHandler) ListModels(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var filter queries.ModelFilter
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if name := c.Query("q"); name != "" {
		filter.Name = &name
	}

	var (
		views []*queries.ModelView
		err   error
	)
	if c.Query("bookable") == "true" {
		views, err = h.equipmentQueries.ListBookableModels(c.Request.Context(), actor, filter)
	} else {
		views, err = h.equipmentQueries.ListModels(c.Request.Context(), filter)
	}
	if err != nil {
		if errors.Is(err, equipment.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown equipment category",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	out := make([]*resdto.ModelResponse, len(views))
	for i, v := range views {
		out[i] = resdto.FromModelView(v)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get equipment model
// @Description Get a model with its physical units
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Model ID"
// @Success 200 {object} resdto.ModelWithItemsResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /equipment/models/{id} [get]
func (h *EquipmentHandler) GetModel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid model ID format",
		})
		return
	}

	view, err := h.equipmentQueries.GetModelWithItems(c.Request.Context(), id)
	if err != nil {
		h.writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromModelWithItemsView(view))
}

// @Summary List equipment units of a model
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Model ID"
// @Success 200 {array} resdto.ItemResponse
// @Failure 404 {object} map[string]string
// @Router /equipment/models/{id}/items [get]
func (h *EquipmentHandler) ListItems(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid model ID format",
		})
		return
	}

	views, err := h.equipmentQueries.ListItemsByModel(c.Request.Context(), id)
	if err != nil {
		h.writeQueryError(c, err)
		return
	}

	out := make([]*resdto.ItemResponse, len(views))
	for i, v := range views {
		out[i] = resdto.FromItemView(v)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get equipment unit
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} resdto.ItemResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /equipment/items/{id} [get]
func (h *EquipmentHandler) GetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID format",
		})
		return
	}

	view, err := h.equipmentQueries.GetItem(c.Request.Context(), id)
	if err != nil {
		h.writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromItemView(view))
}

// @Summary Check availability
// @Description Count free units of a model for a time window
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Model ID"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /equipment/models/{id}/availability [get]
func (h *EquipmentHandler) GetAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid model ID format",
		})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid start time format",
		})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid end time format",
		})
		return
	}

	count, err := h.equipmentQueries.CountAvailable(c.Request.Context(), id, start, end)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Start time must be before end time",
			})
		case errors.Is(err, queries.ErrModelNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Equipment model not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.AvailabilityResponse{
		ModelID:   id,
		StartTime: start,
		EndTime:   end,
		Available: count,
	})
}

// @Summary Create equipment model
// @Tags equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ModelRequest true "Model"
// @Success 201 {object} resdto.ModelResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /equipment/models [post]
func (h *EquipmentHandler) CreateModel(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.ModelRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	id, err := h.equipmentCommands.CreateModel(c.Request.Context(), actor, req.ToParams())
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	view, err := h.equipmentQueries.GetModel(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusCreated, resdto.FromModelView(view))
}

// @Summary Update equipment model
// @Tags equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Model ID"
// @Param request body reqdto.ModelRequest true "Model"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /equipment/models/{id} [put]
func (h *EquipmentHandler) UpdateModel(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid model ID format",
		})
		return
	}

	var req reqdto.ModelRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.equipmentCommands.UpdateModel(c.Request.Context(), actor, id, req.ToParams()); err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Delete equipment model
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Model ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /equipment/models/{id} [delete]
func (h *EquipmentHandler) DeleteModel(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid model ID format",
		})
		return
	}

	if err := h.equipmentCommands.DeleteModel(c.Request.Context(), actor, id); err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Register equipment unit
// @Description Mint the next inventory number for the model and register a unit
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Model ID"
// @Success 201 {object} resdto.CreatedItemResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /equipment/models/{id}/items [post]
func (h *EquipmentHandler) CreateItem(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	modelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid model ID format",
		})
		return
	}

	id, invNum, err := h.equipmentCommands.CreateItem(c.Request.Context(), actor, modelID)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.CreatedItemResponse{ID: id, InventoryNumber: invNum})
}

// @Summary Delete equipment unit
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /equipment/items/{id} [delete]
func (h *EquipmentHandler) DeleteItem(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID format",
		})
		return
	}

	if err := h.equipmentCommands.DeleteItem(c.Request.Context(), actor, id); err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Set equipment unit availability
// @Description Manual service toggle for damaged or retired units
// @Tags equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param request body reqdto.SetAvailabilityRequest true "Availability flag"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /equipment/items/{id}/availability [patch]
func (h *EquipmentHandler) SetItemAvailability(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID format",
		})
		return
	}

	var req reqdto.SetAvailabilityRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.equipmentCommands.SetItemAvailability(c.Request.Context(), actor, id, *req.Available); err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EquipmentHandler) writeCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
	case errors.Is(err, commands.ErrModelNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Equipment model not found",
		})
	case errors.Is(err, commands.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Equipment item not found",
		})
	case errors.Is(err, commands.ErrModelAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Equipment model with this name already exists",
		})
	case errors.Is(err, commands.ErrModelHasItems):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Equipment model still has registered units",
		})
	case errors.Is(err, equipment.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown equipment category",
		})
	case errors.Is(err, equipment.ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Model name is required",
		})
	case errors.Is(err, commands.ErrItemCreationFailed):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to assign an inventory number",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func (h *EquipmentHandler) writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queries.ErrModelNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Equipment model not found",
		})
	case errors.Is(err, queries.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Equipment item not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
