package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

type RouterOptions struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

func NewRouter(handler *Handler, logger *logging.Logger, opts RouterOptions) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, opts.SwaggerEnabled)
	registerAnalysisRoutes(mux, handler)
	registerStatsRoutes(mux, handler)
	registerMCPRoutes(mux, opts.MCP)

	return RequestTracing(RequestLogging(logger, CORS(opts.CORSAllowedOrigins, recoverPanic(logger, mux))))
}
