package handler

import (
	"net/http"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/middleware"
	"github.com/jusondac/factory-app/internal/service"

	"github.com/gin-gonic/gin"
)

type MachinesHandler struct{ svc service.MachineService }

func NewMachinesHandler(svc service.MachineService) *MachinesHandler {
	return &MachinesHandler{svc: svc}
}

// Create godoc
// @Summary      Register a machine with its checklist template
// @Tags         machines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateMachineRequest true "Machine"
// @Success      201 {object} dto.MachineResponse
// @Failure      403 {object} apierror.Error
// @Router       /v1/machines [post]
func (h *MachinesHandler) Create(c *gin.Context) {
	var req dto.CreateMachineRequest
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
// @Summary      Get a machine
// @Tags         machines
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Machine UUID"
// @Success      200 {object} dto.MachineResponse
// @Router       /v1/machines/{id} [get]
func (h *MachinesHandler) Get(c *gin.Context) {
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
// @Summary      List machines
// @Tags         machines
// @Produce      json
// @Security     BearerAuth
// @Param        allocation query string false "production | packing | testing"
// @Param        status     query string false "inactive | active | under_maintenance"
// @Success      200 {array} dto.MachineResponse
// @Router       /v1/machines [get]
func (h *MachinesHandler) List(c *gin.Context) {
	filter := dto.MachineFilter{
		Allocation: c.Query("allocation"),
		Status:     c.Query("status"),
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update a machine
// @Description  Replacing checkings swaps the whole checklist template.
// @Tags         machines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Machine UUID"
// @Param        body body dto.UpdateMachineRequest true "Changes"
// @Success      200 {object} dto.MachineResponse
// @Router       /v1/machines/{id} [put]
func (h *MachinesHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateMachineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetCurrentUser(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a machine
// @Description  Machines currently assigned to a batch cannot be deleted.
// @Tags         machines
// @Security     BearerAuth
// @Param        id path string true "Machine UUID"
// @Success      204
// @Failure      400 {object} apierror.Error
// @Router       /v1/machines/{id} [delete]
func (h *MachinesHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetCurrentUser(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
