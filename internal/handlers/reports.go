package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecowatch/api/internal/ecoerr"
	"ecowatch/api/internal/middleware"
	"ecowatch/api/internal/models"
	"ecowatch/api/internal/repository"
	"ecowatch/api/internal/service"
)

// Coordinates are pointers so that 0 stays a valid value; required on a
// pointer checks presence, not non-zero.
type createReportRequest struct {
	Title        string   `json:"title" binding:"required"`
	ReporterName string   `json:"reporterName"`
	Phone        string   `json:"phone"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	Category     string   `json:"category"`
	Image        string   `json:"image"`
}

func (h HandlerSet) CreateReport(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, _ := models.ParseCategory(req.Category)
	report, err := h.workflow.Create(c.Request.Context(), actor, service.CreateReportInput{
		Title:        req.Title,
		ReporterName: req.ReporterName,
		Phone:        req.Phone,
		Description:  req.Description,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Category:     category,
		Image:        req.Image,
	})
	if err != nil {
		c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (h HandlerSet) ListReports(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": h.workflow.List(c.Request.Context(), actor)})
}

func (h HandlerSet) GetReport(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	report, err := h.workflow.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// updateReportRequest carries a partial update. Lifecycle fields dispatch
// to the workflow's dedicated transitions; the rest is a descriptive
// shallow merge.
type updateReportRequest struct {
	Title         *string  `json:"title,omitempty"`
	ReporterName  *string  `json:"reporterName,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Address       *string  `json:"address,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Image         *string  `json:"image,omitempty"`
	AssignedTo    *string  `json:"assignedTo,omitempty"`
	Status        *string  `json:"status,omitempty"`
	AdminComments *string  `json:"adminComments,omitempty"`
	// isSentToRescuer is accepted for wire compatibility but implied by
	// assignment; it cannot be toggled on its own.
	IsSentToRescuer *bool `json:"isSentToRescuer,omitempty"`
}

func (h HandlerSet) UpdateReport(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	var (
		report models.Report
		err    error
		acted  bool
	)

	if req.AssignedTo != nil {
		report, err = h.workflow.Assign(ctx, actor, id, *req.AssignedTo)
		if err != nil {
			c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		acted = true
	}

	if req.Status != nil {
		switch models.ReportStatus(*req.Status) {
		case models.ReportStatusInReview:
			report, err = h.workflow.StartReview(ctx, actor, id)
		case models.ReportStatusReviewed, models.ReportStatusRejected:
			report, err = h.workflow.Resolve(ctx, actor, id, models.ReportStatus(*req.Status))
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		if err != nil {
			c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		acted = true
	}

	if req.AdminComments != nil {
		report, err = h.workflow.SaveAdminComments(ctx, actor, id, *req.AdminComments)
		if err != nil {
			c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		acted = true
	}

	descriptive, err := repository.PatchMap(updateReportRequest{
		Title:        req.Title,
		ReporterName: req.ReporterName,
		Phone:        req.Phone,
		Description:  req.Description,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Category:     req.Category,
		Image:        req.Image,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(descriptive) > 0 {
		report, err = h.workflow.Update(ctx, actor, id, descriptive)
		if err != nil {
			c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		acted = true
	}

	if !acted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty update"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h HandlerSet) DeleteReport(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.workflow.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// AdminListReports returns every report, newest first. The guard already
// confined this route to admins.
func (h HandlerSet) AdminListReports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reports": h.reports.List()})
}
