package handler

import (
	"context"
	"net/http"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/middleware"
	"github.com/jusondac/factory-app/internal/model"
	"github.com/jusondac/factory-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BatchesHandler struct{ svc service.BatchService }

func NewBatchesHandler(svc service.BatchService) *BatchesHandler {
	return &BatchesHandler{svc: svc}
}

// Create godoc
// @Summary      Start a production run
// @Description  Creates the unit batch with its batch code and today's preparation snapshot.
// @Tags         batches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateUnitBatchRequest true "Batch"
// @Success      201 {object} dto.UnitBatchResponse
// @Failure      409 {object} apierror.Error
// @Router       /v1/batches [post]
func (h *BatchesHandler) Create(c *gin.Context) {
	var req dto.CreateUnitBatchRequest
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
// @Summary      Get a unit batch with its phases
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch UUID"
// @Success      200 {object} dto.UnitBatchResponse
// @Router       /v1/batches/{id} [get]
func (h *BatchesHandler) Get(c *gin.Context) {
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
// @Summary      List unit batches
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        status     query string false "preparation | production | testing | packing | cancelled"
// @Param        product_id query string false "Filter by product"
// @Param        tab        query string false "today | history"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.UnitBatchListResponse
// @Router       /v1/batches [get]
func (h *BatchesHandler) List(c *gin.Context) {
	filter := dto.BatchFilter{
		Status:    c.Query("status"),
		ProductID: c.Query("product_id"),
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

// MoveToPrepare godoc
// @Summary      Backfill a missing preparation snapshot for a batch
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch UUID"
// @Success      200 {object} dto.UnitBatchResponse
// @Router       /v1/batches/{id}/move-to-prepare [post]
func (h *BatchesHandler) MoveToPrepare(c *gin.Context) {
	h.move(c, h.svc.MoveToPrepare)
}

// MoveToProduction godoc
// @Summary      Move a batch into the production phase
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch UUID"
// @Success      200 {object} dto.UnitBatchResponse
// @Router       /v1/batches/{id}/move-to-production [post]
func (h *BatchesHandler) MoveToProduction(c *gin.Context) {
	h.move(c, h.svc.MoveToProduction)
}

// MoveToPackage godoc
// @Summary      Move a batch into the packing phase
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch UUID"
// @Success      200 {object} dto.UnitBatchResponse
// @Router       /v1/batches/{id}/move-to-package [post]
func (h *BatchesHandler) MoveToPackage(c *gin.Context) {
	h.move(c, h.svc.MoveToPackage)
}

// Undo godoc
// @Summary      Step a batch back one phase
// @Description  Destroys the downstream phase record and releases any machine it held.
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch UUID"
// @Success      200 {object} dto.UnitBatchResponse
// @Failure      400 {object} apierror.Error
// @Router       /v1/batches/{id}/undo [post]
func (h *BatchesHandler) Undo(c *gin.Context) {
	h.move(c, h.svc.Undo)
}

// Delete godoc
// @Summary      Delete a batch and all its phase records
// @Tags         batches
// @Security     BearerAuth
// @Param        id path string true "Batch UUID"
// @Success      204
// @Router       /v1/batches/{id} [delete]
func (h *BatchesHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), middleware.GetCurrentUser(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BatchesHandler) move(c *gin.Context, fn func(context.Context, *model.User, uuid.UUID) (*dto.UnitBatchResponse, error)) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
