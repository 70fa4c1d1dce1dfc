package handler

import (
	"net/http"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/middleware"
	"github.com/jusondac/factory-app/internal/service"

	"github.com/gin-gonic/gin"
)

type ProducesHandler struct {
	svc       service.ProduceService
	machines  service.MachineService
	checklist service.ChecklistService
}

func NewProducesHandler(svc service.ProduceService, machines service.MachineService, checklist service.ChecklistService) *ProducesHandler {
	return &ProducesHandler{svc: svc, machines: machines, checklist: checklist}
}

// Get godoc
// @Summary      Get a produce
// @Tags         produces
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Produce UUID"
// @Success      200 {object} dto.ProduceResponse
// @Router       /v1/produces/{id} [get]
func (h *ProducesHandler) Get(c *gin.Context) {
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
// @Summary      List produces
// @Tags         produces
// @Produce      json
// @Security     BearerAuth
// @Param        status     query string false "unproduce | producing | produced"
// @Param        product_id query string false "Filter by product"
// @Param        date       query string false "Exact produce date YYYY-MM-DD"
// @Param        tab        query string false "today | history"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.ProduceListResponse
// @Router       /v1/produces [get]
func (h *ProducesHandler) List(c *gin.Context) {
	filter := dto.ProduceFilter{
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

// SelectMachine godoc
// @Summary      Reserve a production machine
// @Description  Swapping machines releases the prior one and discards its checklist answers.
// @Tags         produces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Produce UUID"
// @Param        body body dto.SelectMachineRequest true "Machine"
// @Success      200 {object} dto.ProduceResponse
// @Failure      400 {object} apierror.Error
// @Router       /v1/produces/{id}/machine [post]
func (h *ProducesHandler) SelectMachine(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SelectMachineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.machines.SelectProduceMachine(c.Request.Context(), middleware.GetCurrentUser(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetChecklist godoc
// @Summary      Render the machine checklist
// @Tags         produces
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Produce UUID"
// @Success      200 {object} dto.ChecklistResponse
// @Router       /v1/produces/{id}/checklist [get]
func (h *ProducesHandler) GetChecklist(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.checklist.GetProduceChecklist(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitChecklist godoc
// @Summary      Record machine checklist answers
// @Description  Replaces any prior answers and marks the produce machine-checked.
// @Tags         produces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Produce UUID"
// @Param        body body dto.SubmitChecklistRequest true "Answers keyed by checking id"
// @Success      200 {object} dto.ChecklistResponse
// @Router       /v1/produces/{id}/checklist [post]
func (h *ProducesHandler) SubmitChecklist(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitChecklistRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.checklist.SubmitProduceChecklist(c.Request.Context(), middleware.GetCurrentUser(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Start godoc
// @Summary      Start production
// @Description  Requires an assigned machine with a completed checklist.
// @Tags         produces
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Produce UUID"
// @Success      200 {object} dto.ProduceResponse
// @Failure      400 {object} apierror.Error
// @Router       /v1/produces/{id}/start [post]
func (h *ProducesHandler) Start(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.StartProduction(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Complete godoc
// @Summary      Complete production
// @Description  Releases the machine, advances the batch to packing and creates its package record.
// @Tags         produces
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Produce UUID"
// @Success      200 {object} dto.ProduceResponse
// @Router       /v1/produces/{id}/complete [post]
func (h *ProducesHandler) Complete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CompleteProduction(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
