package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/company-icons/internal/model"
	"github.com/fleveque/company-icons/internal/service"
)

// IconHandler serves batch icon lookups.
type IconHandler struct {
	iconService *service.IconService
	logger      *zap.Logger
}

// NewIconHandler creates a new IconHandler.
func NewIconHandler(iconService *service.IconService, logger *zap.Logger) *IconHandler {
	return &IconHandler{
		iconService: iconService,
		logger:      logger,
	}
}

// GetIcons resolves an icon for every company in the request.
// Route: POST /get_icons
//
// The whole batch is validated before any lookup starts: a single malformed
// entry rejects the request with 422. After that every entry gets a result,
// with an empty icon_url when nothing was found or the lookup failed.
func (h *IconHandler) GetIcons(c *gin.Context) {
	var req model.CompanyList
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "invalid request: " + err.Error(),
		})
		return
	}

	results := h.iconService.ResolveBatch(c.Request.Context(), req.ToCompanies())

	resp := make([]model.CompanyWithIcon, len(results))
	failed := 0
	for i, r := range results {
		resp[i] = r.Response()
		if r.Err != nil {
			failed++
		}
	}

	h.logger.Info("batch resolved",
		zap.Int("companies", len(results)),
		zap.Int("failed", failed),
	)
	c.JSON(http.StatusOK, resp)
}
