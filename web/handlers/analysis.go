package handlers

import (
	"context"
	"net/http"

	"betlogic/analyst"
	apperrors "betlogic/errors"
	"betlogic/web/middleware"
	"betlogic/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Analyzer produces a validated analysis for one fixture.
type Analyzer interface {
	Analyze(ctx context.Context, req analyst.Request) (analyst.Result, error)
}

type AnalysisHandler struct {
	analyzer   Analyzer
	configured bool
	debug      bool
	logger     *zap.Logger
}

// NewAnalysisHandler builds the POST /analyze handler. configured reports
// whether the model provider has a credential; debug adds error details to
// failure bodies.
func NewAnalysisHandler(analyzer Analyzer, configured, debug bool, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:   analyzer,
		configured: configured,
		debug:      debug,
		logger:     logger,
	}
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	logger := middleware.LoggerFrom(c, h.logger)

	if !h.configured {
		respondWithError(c, http.StatusInternalServerError,
			apperrors.WrapError(apperrors.ErrConfiguration, "OPENROUTER_API_KEY not set"), msgMissingLLMKey, logger)
		return
	}

	var body types.AnalyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondWithClientError(c, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	teams, league, status := body.Fields()
	req := analyst.Request{TeamsLabel: teams, League: league, MatchStatus: status}.Normalized()
	if err := req.Validate(); err != nil {
		respondWithClientError(c, http.StatusBadRequest, msgIncomplete)
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		respondWithAnalysisError(c, err, h.debug, logger.With(zap.String("match", req.TeamsLabel)))
		return
	}

	logger.Info("Analysis served",
		zap.String("match", req.TeamsLabel),
		zap.String("stage", string(result.Stage)),
		zap.Bool("cached", result.Cached),
		zap.Int("calls", result.Calls))

	c.Header("Cache-Control", "public, max-age=60")
	c.JSON(http.StatusOK, types.AnalyzeResponse{Analysis: result.Text})
}
