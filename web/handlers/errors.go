package handlers

import (
	"context"
	"errors"
	"net/http"

	"betlogic/analyst"
	apperrors "betlogic/errors"
	"betlogic/llmclient"
	"betlogic/utils"
	"betlogic/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInvalidJSON     = "Invalid JSON body"
	msgIncomplete      = "Date incomplete"
	msgMissingLLMKey   = "Missing OpenRouter API key"
	msgNoValidAnalysis = "Nu am putut genera o analiză validă. Încearcă din nou."
	msgServerError     = "Server error"

	detailsLimit = 2000
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields, zap.Error(technicalError))
		logger.Error("Request failed", fields...)
	}
	c.JSON(statusCode, types.ErrorResponse{Error: userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, types.ErrorResponse{Error: userMessage})
}

// analysisFailure is the HTTP rendition of an Analyze error.
type analysisFailure struct {
	status int
	body   types.ErrorResponse
	fields []zap.Field
}

// classifyAnalysisError maps an Analyze error to a status and body. details
// are filled only when debug is set.
func classifyAnalysisError(err error, debug bool) analysisFailure {
	var upstream *llmclient.UpstreamError
	var output *analyst.OutputError

	switch {
	case errors.As(err, &upstream):
		f := analysisFailure{
			status: http.StatusBadGateway,
			body:   types.ErrorResponse{Error: upstream.Message, Reason: "upstream_error"},
			fields: []zap.Field{
				zap.Int("upstream_status", upstream.Status),
				zap.String("kind", string(upstream.Kind)),
				zap.Int("attempts", upstream.Attempts),
				zap.String("raw", utils.TruncateForLog(upstream.Raw, 500)),
			},
		}
		if upstream.Timeout() {
			f.status = http.StatusGatewayTimeout
			f.body.Reason = "upstream_timeout"
		}
		if debug {
			f.body.Details = utils.TruncateForLog(upstream.Raw, detailsLimit)
		}
		return f

	case apperrors.IsOutputFailure(err) && errors.As(err, &output):
		reason := "invalid_output"
		if errors.Is(output, apperrors.ErrOutputTruncated) {
			reason = "truncated_output"
		}
		f := analysisFailure{
			status: http.StatusBadGateway,
			body:   types.ErrorResponse{Error: msgNoValidAnalysis, Reason: reason},
			fields: []zap.Field{
				zap.String("verdict", string(output.Reason)),
				zap.String("rule", output.Rule),
				zap.String("preview", utils.TruncateForLog(output.Text, 300)),
			},
		}
		if debug {
			f.body.Details = string(output.Reason) + ": " + utils.TruncateForLog(output.Text, detailsLimit)
		}
		return f

	case apperrors.IsInvalidInput(err):
		return analysisFailure{status: http.StatusBadRequest, body: types.ErrorResponse{Error: msgIncomplete}}

	case apperrors.IsConfiguration(err):
		return analysisFailure{status: http.StatusInternalServerError, body: types.ErrorResponse{Error: msgMissingLLMKey}}

	case errors.Is(err, context.DeadlineExceeded):
		return analysisFailure{status: http.StatusGatewayTimeout, body: types.ErrorResponse{Error: "OpenRouter timeout", Reason: "upstream_timeout"}}
	}

	f := analysisFailure{status: http.StatusInternalServerError, body: types.ErrorResponse{Error: msgServerError}}
	if debug {
		f.body.Details = err.Error()
	}
	return f
}

// respondWithAnalysisError is the single place Analyze errors become HTTP
// responses.
func respondWithAnalysisError(c *gin.Context, err error, debug bool, logger *zap.Logger) {
	f := classifyAnalysisError(err, debug)
	if logger != nil {
		fields := append(f.fields, zap.Int("status", f.status), zap.String("reason", f.body.Reason), zap.Error(err))
		if f.status >= http.StatusInternalServerError {
			logger.Error("Analysis failed", fields...)
		} else {
			logger.Warn("Analysis request rejected", fields...)
		}
	}
	c.JSON(f.status, f.body)
}
