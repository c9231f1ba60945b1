package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/company-icons/internal/service"
	"github.com/fleveque/company-icons/internal/storage"
)

// StatsHandler reports cache and LLM usage counters.
type StatsHandler struct {
	iconService *service.IconService
	llmCallRepo storage.LLMCallRepository // nil when the call log is disabled
	logger      *zap.Logger
}

// NewStatsHandler creates a new StatsHandler. llmCallRepo may be nil.
func NewStatsHandler(iconService *service.IconService, llmCallRepo storage.LLMCallRepository, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		iconService: iconService,
		llmCallRepo: llmCallRepo,
		logger:      logger,
	}
}

// Stats returns service counters.
// Route: GET /stats
func (h *StatsHandler) Stats(c *gin.Context) {
	body := gin.H{
		"cached_icons": h.iconService.CacheSize(),
	}

	if h.llmCallRepo != nil {
		calls, err := h.llmCallRepo.Count(c.Request.Context())
		if err != nil {
			h.logger.Error("counting llm calls", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		body["llm_calls"] = calls
	}

	c.JSON(http.StatusOK, body)
}
