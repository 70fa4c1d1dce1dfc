package handler

import (
	"net/http"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/middleware"
	"github.com/jusondac/factory-app/internal/service"

	"github.com/gin-gonic/gin"
)

type PackagesHandler struct {
	svc       service.PackageService
	machines  service.MachineService
	checklist service.ChecklistService
}

func NewPackagesHandler(svc service.PackageService, machines service.MachineService, checklist service.ChecklistService) *PackagesHandler {
	return &PackagesHandler{svc: svc, machines: machines, checklist: checklist}
}

// Get godoc
// @Summary      Get a package
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Package UUID"
// @Success      200 {object} dto.PackageResponse
// @Router       /v1/packages/{id} [get]
func (h *PackagesHandler) Get(c *gin.Context) {
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
// @Summary      List packages
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        status     query string false "unpackage | packaging | package"
// @Param        product_id query string false "Filter by product"
// @Param        date       query string false "Exact package date YYYY-MM-DD"
// @Param        tab        query string false "today | history"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.PackageListResponse
// @Router       /v1/packages [get]
func (h *PackagesHandler) List(c *gin.Context) {
	filter := dto.PackageFilter{
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
// @Summary      Reserve a packing machine
// @Tags         packages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Package UUID"
// @Param        body body dto.SelectMachineRequest true "Machine"
// @Success      200 {object} dto.PackageResponse
// @Failure      400 {object} apierror.Error
// @Router       /v1/packages/{id}/machine [post]
func (h *PackagesHandler) SelectMachine(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SelectMachineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.machines.SelectPackageMachine(c.Request.Context(), middleware.GetCurrentUser(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetChecklist godoc
// @Summary      Render the machine checklist
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Package UUID"
// @Success      200 {object} dto.ChecklistResponse
// @Router       /v1/packages/{id}/checklist [get]
func (h *PackagesHandler) GetChecklist(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.checklist.GetPackageChecklist(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitChecklist godoc
// @Summary      Record machine checklist answers and start packaging
// @Tags         packages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Package UUID"
// @Param        body body dto.SubmitChecklistRequest true "Answers keyed by checking id"
// @Success      200 {object} dto.ChecklistResponse
// @Router       /v1/packages/{id}/checklist [post]
func (h *PackagesHandler) SubmitChecklist(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitChecklistRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.checklist.SubmitPackageChecklist(c.Request.Context(), middleware.GetCurrentUser(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Start godoc
// @Summary      Start packaging
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Package UUID"
// @Success      200 {object} dto.PackageResponse
// @Router       /v1/packages/{id}/start [post]
func (h *PackagesHandler) Start(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.StartPackaging(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Complete godoc
// @Summary      Complete packaging and release the machine
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Package UUID"
// @Success      200 {object} dto.PackageResponse
// @Router       /v1/packages/{id}/complete [post]
func (h *PackagesHandler) Complete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CompletePackaging(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateWaste godoc
// @Summary      Record discarded units
// @Tags         packages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Package UUID"
// @Param        body body dto.UpdateWasteRequest true "Waste"
// @Success      200 {object} dto.PackageResponse
// @Failure      422 {object} apierror.Error
// @Router       /v1/packages/{id}/waste [patch]
func (h *PackagesHandler) UpdateWaste(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateWasteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateWaste(c.Request.Context(), middleware.GetCurrentUser(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
