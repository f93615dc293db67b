package handlers

import (
	"net/http"

	"betlogic/analyst"
	"betlogic/fixtures"
	"betlogic/web/format"
	"betlogic/web/middleware"
	"betlogic/web/templates/pages"
	"betlogic/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageHandler serves the server-rendered match picker.
type PageHandler struct {
	analyzer Analyzer
	lister   FixtureLister
	logger   *zap.Logger
}

func NewPageHandler(analyzer Analyzer, lister FixtureLister, logger *zap.Logger) *PageHandler {
	return &PageHandler{analyzer: analyzer, lister: lister, logger: logger}
}

// Index lists today's fixtures grouped by league.
func (h *PageHandler) Index(c *gin.Context) {
	logger := middleware.LoggerFrom(c, h.logger)

	var list []fixtures.Fixture
	notice := ""
	if !h.lister.Configured() {
		notice = "Lipsește cheia API-Sports."
	} else {
		var err error
		list, err = h.lister.Today(c.Request.Context())
		if err != nil {
			logger.Error("Fixtures lookup failed", zap.Error(err))
			notice = "Nu am putut încărca meciurile de azi."
		}
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pages.MatchPicker(pages.GroupByLeague(list), notice).Render(c.Request.Context(), c.Writer); err != nil {
		logger.Error("Failed to render match picker", zap.Error(err))
	}
}

// View renders the analysis for the fixture posted from the picker.
func (h *PageHandler) View(c *gin.Context) {
	logger := middleware.LoggerFrom(c, h.logger)

	var form types.AnalyzeRequest
	if err := c.ShouldBind(&form); err != nil {
		logger.Debug("Match form did not bind", zap.Error(err))
	}
	teams, league, status := form.Fields()
	req := analyst.Request{TeamsLabel: teams, League: league, MatchStatus: status}.Normalized()

	view := pages.AnalysisData{Teams: req.TeamsLabel, League: req.League, Status: req.MatchStatus}
	code := http.StatusOK
	if err := req.Validate(); err != nil {
		code = http.StatusBadRequest
		view.Error = msgIncomplete
	} else if result, err := h.analyzer.Analyze(c.Request.Context(), req); err != nil {
		f := classifyAnalysisError(err, false)
		logger.Error("Analysis failed", append(f.fields, zap.Error(err))...)
		code = f.status
		view.Error = f.body.Error
	} else {
		view.HTML = format.AnalysisToHTML(result.Text)
	}

	c.Status(code)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pages.Analysis(view).Render(c.Request.Context(), c.Writer); err != nil {
		logger.Error("Failed to render analysis page", zap.Error(err))
	}
}
