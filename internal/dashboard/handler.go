package dashboard

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hkf/crm/internal/middleware"
	"github.com/hkf/crm/pkg/response"
)

// Handler handles dashboard HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Stats handles GET /dashboard/stats.
func (h *Handler) Stats(c *gin.Context) {
	orgID := middleware.OrganizationID(c)
	stats, err := h.svc.Stats(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("dashboard stats failed", zap.Error(err), zap.String("organization_id", orgID.String()))
		response.Internal(c, "failed to load dashboard")
		return
	}
	response.OK(c, stats)
}

// Recent handles GET /dashboard/recent.
func (h *Handler) Recent(c *gin.Context) {
	list, err := h.svc.Recent(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		response.Error(c, err, "failed to load recent applications")
		return
	}
	response.OK(c, list)
}
