package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/middleware"
	"github.com/xxxsen/importdash/internal/pkg/errcode"
	appErr "github.com/xxxsen/importdash/internal/pkg/errors"
	"github.com/xxxsen/importdash/internal/pkg/response"
	"github.com/xxxsen/importdash/internal/service"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

// getActor falls back to the user id when the token carries no email.
func getActor(c *gin.Context) service.Actor {
	userID := getUserID(c)
	identity := c.GetString(middleware.ContextUserEmailKey)
	if identity == "" {
		identity = userID
	}
	return service.Actor{UserID: userID, Identity: identity}
}

func queryInt(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		response.Error(c, errcode.ErrInvalid, "invalid "+name)
		return 0, false
	}
	return v, true
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, errcode.ErrInvalid, "invalid id")
		return 0, false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	handleFailure(c, err, errcode.ErrUpstream)
}

// handleFailure writes err as an envelope error. Import service failures are
// reported with upstreamCode and their display message.
func handleFailure(c *gin.Context, err error, upstreamCode int) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	var upErr *service.UpstreamError
	switch {
	case errors.As(err, &upErr):
		response.Error(c, upstreamCode, upErr.Message())
	case errors.Is(err, importflow.ErrValidationBlocked):
		response.Error(c, errcode.ErrValidationBlocked, importflow.GuardMessage)
	case errors.Is(err, importflow.ErrBusy):
		response.Error(c, errcode.ErrRunBusy, "import run is busy")
	case errors.Is(err, importflow.ErrFilesMissing):
		response.Error(c, errcode.ErrFilesMissing, "header and items files are required")
	case errors.Is(err, importflow.ErrNoPreview):
		response.Error(c, errcode.ErrNoPreview, "run a preview first")
	case errors.Is(err, importflow.ErrAlreadyCommitted):
		response.Error(c, errcode.ErrRunCommitted, "run already committed, reset it to start a new import")
	case errors.Is(err, importflow.ErrSuperseded), errors.Is(err, context.Canceled):
		response.Error(c, errcode.ErrSuperseded, "request superseded")
	case errors.Is(err, importflow.ErrInvalidSlot):
		response.Error(c, errcode.ErrInvalid, "slot must be header or items")
	case errors.Is(err, appErr.ErrFileTooLarge):
		response.Error(c, errcode.ErrFileTooLarge, "file too large")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
