package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/importdash/internal/pkg/response"
	"github.com/xxxsen/importdash/internal/service"
)

type TemplateHandler struct {
	templates *service.TemplateService
}

func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// Download sends the example CSV as an attachment.
func (h *TemplateHandler) Download(c *gin.Context) {
	tpl, err := h.templates.Template(c.Param("kind"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Attachment(c, tpl.Filename, "text/csv; charset=utf-8", tpl.Content)
}
