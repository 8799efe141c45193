package http

import (
	"net/http"

	"github.com/GriffinCanCode/leadform/internal/domain/website"
	"github.com/GriffinCanCode/leadform/internal/providers/scraper"
	"github.com/gin-gonic/gin"
)

// saveFormsRequest is the body of POST /websites/:id/forms
type saveFormsRequest struct {
	Forms []scraper.DetectedForm `json:"forms"`
}

// DetectForms extracts forms from submitted HTML or a URL without storing them
func (h *Handlers) DetectForms(c *gin.Context) {
	var req website.DetectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	forms, err := h.websites.DetectForms(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, forms)
}

// CreateWebsite registers a website. An already registered URL answers 200
// with the existing website.
func (h *Handlers) CreateWebsite(c *gin.Context) {
	var req website.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	w, created, err := h.websites.Create(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondData(c, status, w)
}

// ListWebsites returns one page of websites
func (h *Handlers) ListWebsites(c *gin.Context) {
	var q website.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.websites.List(q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetWebsite returns one website
func (h *Handlers) GetWebsite(c *gin.Context) {
	w, err := h.websites.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, w)
}

// UpdateWebsite applies a partial update
func (h *Handlers) UpdateWebsite(c *gin.Context) {
	var req website.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	w, err := h.websites.Update(c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, w)
}

// DeleteWebsites removes websites with their forms and leads
func (h *Handlers) DeleteWebsites(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.websites.DeleteMany(req.IDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": n})
}

// ScanWebsite fetches the website page and returns its forms
func (h *Handlers) ScanWebsite(c *gin.Context) {
	forms, err := h.websites.Scan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, forms)
}

// SaveForms replaces the stored forms of a website
func (h *Handlers) SaveForms(c *gin.Context) {
	var req saveFormsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	forms, err := h.websites.SaveForms(c.Param("id"), req.Forms)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, forms)
}

// ListForms returns the stored forms of a website with lead counts
func (h *Handlers) ListForms(c *gin.Context) {
	forms, err := h.websites.ListForms(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, forms)
}

// RegenerateSecret issues a new secret key for a website
func (h *Handlers) RegenerateSecret(c *gin.Context) {
	w, err := h.websites.RegenerateSecret(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, w)
}
