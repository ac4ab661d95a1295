package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/importdash/internal/pkg/errcode"
	"github.com/xxxsen/importdash/internal/pkg/response"
	"github.com/xxxsen/importdash/internal/service"
)

type RunHandler struct {
	runs          *service.RunService
	maxUploadSize int64
}

func NewRunHandler(runs *service.RunService, maxUploadSize int64) *RunHandler {
	return &RunHandler{runs: runs, maxUploadSize: maxUploadSize}
}

type importedByRequest struct {
	ImportedBy string `json:"imported_by"`
}

type forceRunRequest struct {
	ForceRun *bool `json:"force_run"`
}

func (h *RunHandler) Create(c *gin.Context) {
	response.Success(c, h.runs.Create(c.Request.Context(), getActor(c)))
}

func (h *RunHandler) Get(c *gin.Context) {
	snap, err := h.runs.Get(c.Request.Context(), getActor(c), c.Param("run_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *RunHandler) Delete(c *gin.Context) {
	if err := h.runs.Delete(c.Request.Context(), getActor(c), c.Param("run_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *RunHandler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, errcode.ErrFileTooLarge, "file too large (max "+formatUploadLimit(h.maxUploadSize)+")")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	snap, err := h.runs.UploadFile(c.Request.Context(), getActor(c), c.Param("run_id"), c.Param("slot"), file.Filename, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *RunHandler) SetImportedBy(c *gin.Context) {
	var req importedByRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	snap, err := h.runs.SetImportedBy(c.Request.Context(), getActor(c), c.Param("run_id"), req.ImportedBy)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *RunHandler) SetForceRun(c *gin.Context) {
	var req forceRunRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ForceRun == nil {
		response.Error(c, errcode.ErrInvalid, "force_run required")
		return
	}
	snap, err := h.runs.SetForceRun(c.Request.Context(), getActor(c), c.Param("run_id"), *req.ForceRun)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *RunHandler) Preview(c *gin.Context) {
	snap, err := h.runs.Preview(c.Request.Context(), getActor(c), c.Param("run_id"))
	if err != nil {
		handleFailure(c, err, errcode.ErrPreviewFailed)
		return
	}
	response.Success(c, snap)
}

func (h *RunHandler) Commit(c *gin.Context) {
	snap, err := h.runs.Commit(c.Request.Context(), getActor(c), c.Param("run_id"))
	if err != nil {
		handleFailure(c, err, errcode.ErrImportFailed)
		return
	}
	response.Success(c, snap)
}

func (h *RunHandler) Reset(c *gin.Context) {
	snap, err := h.runs.Reset(c.Request.Context(), getActor(c), c.Param("run_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}
