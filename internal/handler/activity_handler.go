package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/importdash/internal/pkg/response"
	"github.com/xxxsen/importdash/internal/service"
)

type ActivityHandler struct {
	activities *service.ActivityService
}

func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

func (h *ActivityHandler) List(c *gin.Context) {
	limit, offset, ok := pageQuery(c)
	if !ok {
		return
	}
	items, err := h.activities.List(c.Request.Context(), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}
