package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/importdash/internal/importapi"
	"github.com/xxxsen/importdash/internal/pkg/response"
	"github.com/xxxsen/importdash/internal/service"
)

// DashboardHandler serves the read side of the import service: imports,
// jobs and orders.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) ListImports(c *gin.Context) {
	q, ok := importQuery(c)
	if !ok {
		return
	}
	list, err := h.dashboard.ListImports(c.Request.Context(), q)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *DashboardHandler) GetImport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	detail, err := h.dashboard.GetImport(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *DashboardHandler) ListJobs(c *gin.Context) {
	q, ok := jobQuery(c)
	if !ok {
		return
	}
	list, err := h.dashboard.ListJobs(c.Request.Context(), q)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *DashboardHandler) RetryJob(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	res, err := h.dashboard.RetryJob(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *DashboardHandler) ListOrders(c *gin.Context) {
	orders, err := h.dashboard.ListOrders(c.Request.Context(), importapi.OrderQuery{
		Status:  c.Query("status"),
		Channel: c.Query("channel"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, orders)
}

func (h *DashboardHandler) GetOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	detail, err := h.dashboard.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, detail)
}

func importQuery(c *gin.Context) (importapi.ImportQuery, bool) {
	var q importapi.ImportQuery
	jobID, ok := queryInt(c, "job_id")
	if !ok {
		return q, false
	}
	limit, offset, ok := pageQuery(c)
	if !ok {
		return q, false
	}
	q.JobID, q.Limit, q.Offset = jobID, limit, offset
	return q, true
}

func jobQuery(c *gin.Context) (importapi.JobQuery, bool) {
	q := importapi.JobQuery{Status: c.Query("status"), Type: c.Query("type")}
	orderID, ok := queryInt(c, "order_id")
	if !ok {
		return q, false
	}
	limit, offset, ok := pageQuery(c)
	if !ok {
		return q, false
	}
	q.OrderID, q.Limit, q.Offset = orderID, limit, offset
	return q, true
}

func pageQuery(c *gin.Context) (int, int, bool) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return 0, 0, false
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return 0, 0, false
	}
	return int(limit), int(offset), true
}
