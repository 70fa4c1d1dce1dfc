package handler

import (
	"net/http"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/middleware"
	"github.com/jusondac/factory-app/internal/service"

	"github.com/gin-gonic/gin"
)

type PreparesHandler struct {
	svc      service.PrepareService
	checking service.CheckingService
}

func NewPreparesHandler(svc service.PrepareService, checking service.CheckingService) *PreparesHandler {
	return &PreparesHandler{svc: svc, checking: checking}
}

// Create godoc
// @Summary      Plan a preparation for a product on a date
// @Description  Creates the backing unit batch and snapshots the product recipe. One preparation per product per date.
// @Tags         prepares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePrepareRequest true "Preparation"
// @Success      201 {object} dto.PrepareResponse
// @Failure      409 {object} apierror.Error
// @Router       /v1/prepares [post]
func (h *PreparesHandler) Create(c *gin.Context) {
	var req dto.CreatePrepareRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.GetCurrentUser(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get a preparation with its checklist
// @Tags         prepares
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Preparation UUID"
// @Success      200 {object} dto.PrepareResponse
// @Router       /v1/prepares/{id} [get]
func (h *PreparesHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List preparations
// @Description  Stale preparations are auto-cancelled before the page is built.
// @Tags         prepares
// @Produce      json
// @Security     BearerAuth
// @Param        status     query string false "unchecked | checking | checked | cancelled"
// @Param        product_id query string false "Filter by product"
// @Param        date       query string false "Exact prepare date YYYY-MM-DD"
// @Param        tab        query string false "today | history"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.PrepareListResponse
// @Router       /v1/prepares [get]
func (h *PreparesHandler) List(c *gin.Context) {
	filter := dto.PrepareFilter{
		Status:    c.Query("status"),
		ProductID: c.Query("product_id"),
		Date:      c.Query("date"),
		Tab:       c.Query("tab"),
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 50),
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartChecking godoc
// @Summary      Claim a preparation's checklist
// @Tags         prepares
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Preparation UUID"
// @Success      200 {object} dto.PrepareResponse
// @Failure      403 {object} apierror.Error
// @Router       /v1/prepares/{id}/start-checking [post]
func (h *PreparesHandler) StartChecking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.checking.StartChecking(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelChecking godoc
// @Summary      Cancel a preparation and its batch
// @Tags         prepares
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Preparation UUID"
// @Success      200 {object} dto.PrepareResponse
// @Router       /v1/prepares/{id}/cancel [post]
func (h *PreparesHandler) CancelChecking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.checking.CancelChecking(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type toggleIngredientRequest struct {
	Checked bool `json:"checked"`
}

// ToggleIngredient godoc
// @Summary      Check or uncheck one ingredient
// @Description  Checking the final ingredient completes the preparation and advances the batch into production.
// @Tags         prepares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id            path string true "Preparation UUID"
// @Param        ingredient_id path string true "Ingredient UUID"
// @Param        body body toggleIngredientRequest true "New state"
// @Success      200 {object} dto.ToggleResult
// @Router       /v1/prepares/{id}/ingredients/{ingredient_id} [patch]
func (h *PreparesHandler) ToggleIngredient(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ingredientID, ok := pathUUID(c, "ingredient_id")
	if !ok {
		return
	}
	var req toggleIngredientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.checking.ToggleIngredient(c.Request.Context(), middleware.GetCurrentUser(c), id, ingredientID, req.Checked)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompleteChecking godoc
// @Summary      Finish a fully-checked preparation
// @Tags         prepares
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Preparation UUID"
// @Success      200 {object} dto.ToggleResult
// @Failure      400 {object} apierror.Error
// @Router       /v1/prepares/{id}/complete [post]
func (h *PreparesHandler) CompleteChecking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.checking.CompleteChecking(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
