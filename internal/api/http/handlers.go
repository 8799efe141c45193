package http

import (
	"net/http"

	"github.com/GriffinCanCode/leadform/internal/domain/lead"
	"github.com/GriffinCanCode/leadform/internal/domain/website"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/leadform/internal/infrastructure/resilience"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BreakerReporter exposes per-host circuit breaker states
type BreakerReporter interface {
	BreakerStates() map[string]resilience.State
}

// Handlers contains all HTTP handlers
type Handlers struct {
	websites *website.Manager
	leads    *lead.Manager
	breakers BreakerReporter
	log      *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(websites *website.Manager, leads *lead.Manager) *Handlers {
	return &Handlers{
		websites: websites,
		leads:    leads,
		log:      zap.NewNop(),
	}
}

// WithLogger sets the logger used for unexpected errors
func (h *Handlers) WithLogger(log *zap.Logger) *Handlers {
	h.log = log
	return h
}

// WithBreakers reports fetch circuit breakers on /health
func (h *Handlers) WithBreakers(b BreakerReporter) *Handlers {
	h.breakers = b
	return h
}

// Register mounts every route on router. metrics may be nil.
func (h *Handlers) Register(router *gin.Engine, metrics *monitoring.Metrics) {
	router.GET("/health", h.Health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := router.Group("/api/v1")

	websites := api.Group("/websites")
	websites.POST("/detect-forms", h.DetectForms)
	websites.POST("", h.CreateWebsite)
	websites.GET("", h.ListWebsites)
	websites.DELETE("", h.DeleteWebsites)
	websites.GET("/:id", h.GetWebsite)
	websites.PUT("/:id", h.UpdateWebsite)
	websites.POST("/:id/scan", h.ScanWebsite)
	websites.POST("/:id/forms", h.SaveForms)
	websites.GET("/:id/forms", h.ListForms)
	websites.POST("/:id/secret", h.RegenerateSecret)

	leads := api.Group("/leads")
	leads.POST("/collect", h.CollectLead)
	leads.POST("", h.CreateLead)
	leads.GET("", h.ListLeads)
	leads.DELETE("", h.DeleteLeads)
	leads.GET("/:id", h.GetLead)
	leads.PUT("/:id", h.UpdateLead)
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{"status": "healthy"}
	if h.breakers != nil {
		states := make(map[string]string)
		for host, state := range h.breakers.BreakerStates() {
			states[host] = state.String()
		}
		body["breakers"] = states
	}
	c.JSON(http.StatusOK, body)
}

// idsRequest is the body of bulk deletes
type idsRequest struct {
	IDs []string `json:"ids"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}
