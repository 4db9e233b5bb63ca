package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/crisis-alerts/internal/alerting"
	"github.com/mr1hm/crisis-alerts/internal/models"
	"github.com/mr1hm/crisis-alerts/internal/sms"
	"github.com/mr1hm/crisis-alerts/internal/templates"
)

type Handler struct {
	alerts *alerting.Service
	sms    *sms.Service
}

func NewHandler(alerts *alerting.Service, smsService *sms.Service) *Handler {
	return &Handler{
		alerts: alerts,
		sms:    smsService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/subscribers", h.listSubscribers)
	api.POST("/subscribers", h.subscribe)
	api.DELETE("/subscribers/:phone", h.unsubscribe)
	api.GET("/subscribers/stream", h.streamSubscribers)

	api.GET("/alerts", h.listAlerts)
	api.POST("/alerts", h.sendAlert)
	api.GET("/alerts/stream", h.streamAlerts)

	api.GET("/templates", h.listTemplates)
	api.POST("/templates/:id/render", h.renderTemplate)
	api.GET("/areas", h.listAreas)

	api.POST("/sms", h.sendSMS)
	api.GET("/sms", h.messageHistory)
	api.GET("/sms/:id", h.messageStatus)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type subscribeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Area        string `json:"area"`
}

func (h *Handler) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	receipt, err := h.alerts.Subscriptions.Subscribe(c.Request.Context(), req.PhoneNumber, models.Preferences{Area: req.Area})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) unsubscribe(c *gin.Context) {
	res, err := h.alerts.Subscriptions.Unsubscribe(c.Request.Context(), c.Param("phone"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listSubscribers(c *gin.Context) {
	subs, err := h.alerts.Subscriptions.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

type sendAlertRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Location    string               `json:"location" binding:"required"`
	Severity    models.AlertSeverity `json:"severity"`
	Type        string               `json:"type"`
	TemplateID  int                  `json:"templateId"`
	Variables   map[string]string    `json:"variables"`
}

func (h *Handler) sendAlert(c *gin.Context) {
	var req sendAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
		return
	}

	in := models.AlertInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Severity:    req.Severity,
		Type:        req.Type,
	}

	if req.TemplateID != 0 {
		tmpl, err := templates.Get(req.TemplateID)
		if err != nil {
			writeError(c, err)
			return
		}
		vars := make(map[string]string, len(req.Variables)+1)
		vars["area"] = req.Location
		for k, v := range req.Variables {
			vars[k] = v
		}
		in.Description = tmpl.Render(vars)
		if in.Severity == "" {
			in.Severity = tmpl.Severity
		}
	}

	if in.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description or templateId is required"})
		return
	}
	if in.Title == "" {
		in.Title = "Emergency Alert"
	}
	if in.Severity == "" {
		in.Severity = models.AlertSeverityMedium
	}
	if in.Type == "" {
		in.Type = models.AlertTypeEmergency
	}

	receipt, err := h.alerts.Alerts.Send(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *Handler) listAlerts(c *gin.Context) {
	alerts, err := h.alerts.Alerts.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, templates.All())
}

func (h *Handler) renderTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}
	tmpl, err := templates.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}

	var vars map[string]string
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&vars); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "variables must be a JSON object of strings"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        tmpl.ID,
		"message":   tmpl.Render(vars),
		"severity":  tmpl.Severity,
		"variables": tmpl.Variables(),
	})
}

func (h *Handler) listAreas(c *gin.Context) {
	c.JSON(http.StatusOK, templates.Areas)
}

type sendSMSRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

func (h *Handler) sendSMS(c *gin.Context) {
	var req sendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phoneNumber and message are required"})
		return
	}

	msg, err := h.sms.SendSMS(c.Request.Context(), req.PhoneNumber, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *Handler) messageHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.sms.GetMessageHistory())
}

func (h *Handler) messageStatus(c *gin.Context) {
	status, err := h.sms.GetMessageStatus(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func writeError(c *gin.Context, err error) {
	var (
		ve *alerting.ValidationError
		pe *alerting.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, sms.ErrMessageNotFound), errors.Is(err, templates.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &pe):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + pe.Op})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
