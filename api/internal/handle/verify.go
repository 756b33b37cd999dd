package handle

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"factcheck/api/internal/nli"
	"factcheck/api/internal/verify"
)

const (
	msgInputRequired = "The 'input' field is required."
	msgBadJSON       = "Invalid JSON body."
	msgConfig        = "Server configuration error: the classifier is not configured."
	msgUpstream      = "The classification service returned an error."
	msgInternal      = "Internal server error."
)

type VerifyRequest struct {
	Input  string `json:"input" binding:"required"`
	IsLink bool   `json:"isLink"`
}

// Verify answers POST /api/verify with {status, explanation}.
func (h *Handle) Verify(c *gin.Context) {
	started := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.ObserveRequest(c.Writer.Status(), time.Since(started))
		}
	}()

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(c, http.StatusBadRequest, msgInputRequired, "")
			return
		}
		h.log.Debug("bad request body", zap.Error(err))
		writeError(c, http.StatusBadRequest, msgBadJSON, "")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(c, http.StatusBadRequest, msgInputRequired, "")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	rep, err := h.pipe.Verify(ctx, verify.Claim{Text: req.Input, IsLink: req.IsLink})
	if err != nil {
		h.writePipelineError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveVerdict(string(rep.Verdict.Status), string(rep.Context.Reason))
	}
	c.JSON(http.StatusOK, rep.Verdict)
}

func (h *Handle) writePipelineError(c *gin.Context, err error) {
	var ce *verify.ConfigError
	var ue *nli.UpstreamError
	switch {
	case errors.As(err, &ce):
		h.log.Error("configuration error", zap.Error(err))
		writeError(c, http.StatusInternalServerError, msgConfig, "")
	case errors.As(err, &ue):
		h.log.Error("classifier upstream error", zap.String("engine", ue.Engine), zap.Int("status", ue.StatusCode), zap.String("detail", ue.Detail))
		writeError(c, http.StatusBadGateway, msgUpstream, ue.Details())
	case errors.Is(err, verify.ErrEmptyClaim):
		writeError(c, http.StatusBadRequest, msgInputRequired, "")
	default:
		h.log.Error("verification failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, msgInternal, "")
	}
}
