package handle

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"factcheck/api/internal/observability"
	"factcheck/api/internal/verify"
)

// RequestTimeout caps one verification, search and classifier included.
const RequestTimeout = 75 * time.Second

type Handle struct {
	pipe    *verify.Pipeline
	metrics *observability.Metrics
	log     *zap.Logger
	timeout time.Duration
}

func New(pipe *verify.Pipeline, metrics *observability.Metrics, log *zap.Logger) *Handle {
	return &Handle{
		pipe:    pipe,
		metrics: metrics,
		log:     log.Named("handle"),
		timeout: RequestTimeout,
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(c *gin.Context, code int, msg, details string) {
	c.AbortWithStatusJSON(code, errorBody{Error: msg, Details: details})
}

func Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
