package http

import (
	"net/http"

	"github.com/GriffinCanCode/leadform/internal/domain/lead"
	"github.com/gin-gonic/gin"
)

// CollectLead accepts a public submission authenticated by the website secret
func (h *Handlers) CollectLead(c *gin.Context) {
	var req lead.CollectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	l, err := h.leads.Collect(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"id": l.ID})
}

// CreateLead stores a lead entered from the dashboard
func (h *Handlers) CreateLead(c *gin.Context) {
	var req lead.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	l, err := h.leads.Create(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, l)
}

// ListLeads returns one page of leads
func (h *Handlers) ListLeads(c *gin.Context) {
	var q lead.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.leads.List(q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetLead returns one lead
func (h *Handlers) GetLead(c *gin.Context) {
	l, err := h.leads.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, l)
}

// UpdateLead applies a partial update
func (h *Handlers) UpdateLead(c *gin.Context) {
	var req lead.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	l, err := h.leads.Update(c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, l)
}

// DeleteLeads removes leads by ID
func (h *Handlers) DeleteLeads(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.leads.DeleteMany(req.IDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": n})
}
