package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/model"
	"projecthub/internal/register"
)

type RegisterHandler struct {
	svc    *register.Service
	logger *zap.Logger
}

func NewRegisterHandler(svc *register.Service, logger *zap.Logger) *RegisterHandler {
	return &RegisterHandler{svc: svc, logger: logger}
}

type addEntryRequest struct {
	Type           string  `json:"type" binding:"required"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	MitigationPlan string  `json:"mitigation_plan"`
	RAG            string  `json:"rag_status"`
	Probability    string  `json:"probability"`
	Impact         string  `json:"impact"`
	Owner          *string `json:"owner"`
	Status         string  `json:"status"`
}

type updateEntryRequest struct {
	Type           *string `json:"type"`
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	MitigationPlan *string `json:"mitigation_plan"`
	RAG            *string `json:"rag_status"`
	Probability    *string `json:"probability"`
	Impact         *string `json:"impact"`
	Owner          *string `json:"owner"`
	Status         *string `json:"status"`
}

func (r updateEntryRequest) patch() model.RiskPatch {
	p := model.RiskPatch{
		Title:          r.Title,
		Description:    r.Description,
		MitigationPlan: r.MitigationPlan,
		Owner:          r.Owner,
	}
	if r.Type != nil {
		v := model.EntryType(*r.Type)
		p.Type = &v
	}
	if r.RAG != nil {
		v := model.RAG(*r.RAG)
		p.RAG = &v
	}
	if r.Probability != nil {
		v := model.Level(*r.Probability)
		p.Probability = &v
	}
	if r.Impact != nil {
		v := model.Level(*r.Impact)
		p.Impact = &v
	}
	if r.Status != nil {
		v := model.EntryStatus(*r.Status)
		p.Status = &v
	}
	return p
}

func (h *RegisterHandler) ListEntries(c *gin.Context) {
	log := reqLogger(c, h.logger)
	projectID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "ListEntries", "invalid project id", err)
		return
	}
	filter := model.RiskFilter{
		Type:   model.EntryType(c.Query("type")),
		Status: model.EntryStatus(c.Query("status")),
	}
	log.Debug("ListEntries request received",
		zap.Int("project_id", projectID),
		zap.String("type", string(filter.Type)),
		zap.String("status", string(filter.Status)),
	)

	entries, err := h.svc.ListEntries(c.Request.Context(), projectID, filter)
	if err != nil {
		respondError(c, log, "ListEntries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Summary counts entries per RAG. Repeated ?status= values widen the set; the default is open only.
func (h *RegisterHandler) Summary(c *gin.Context) {
	log := reqLogger(c, h.logger)
	projectID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "Summary", "invalid project id", err)
		return
	}

	var statuses []model.EntryStatus
	for _, raw := range c.QueryArray("status") {
		statuses = append(statuses, model.EntryStatus(raw))
	}

	counts, err := h.svc.CountByRag(c.Request.Context(), projectID, statuses...)
	if err != nil {
		respondError(c, log, "Summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": projectID, "counts": counts})
}

func (h *RegisterHandler) AddEntry(c *gin.Context) {
	log := reqLogger(c, h.logger)
	projectID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "AddEntry", "invalid project id", err)
		return
	}
	log.Info("AddEntry request received", zap.Int("project_id", projectID), zap.String("client_ip", c.ClientIP()))

	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "AddEntry", "invalid request body", err)
		return
	}

	e, outcome, err := h.svc.AddEntry(c.Request.Context(), projectID, register.NewEntry{
		Type:           model.EntryType(req.Type),
		Title:          req.Title,
		Description:    req.Description,
		MitigationPlan: req.MitigationPlan,
		RAG:            model.RAG(req.RAG),
		Probability:    model.Level(req.Probability),
		Impact:         model.Level(req.Impact),
		Owner:          req.Owner,
		Status:         model.EntryStatus(req.Status),
	})
	if err != nil {
		respondError(c, log, "AddEntry", err)
		return
	}

	log.Info("AddEntry: success", zap.String("reference", e.Reference), zap.String("notification", outcome.Status))
	c.JSON(http.StatusCreated, gin.H{"entry": e, "notification": outcome})
}

func (h *RegisterHandler) UpdateEntry(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "UpdateEntry", "invalid risk id", err)
		return
	}
	log.Info("UpdateEntry request received", zap.Int("risk_id", id), zap.String("client_ip", c.ClientIP()))

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "UpdateEntry", "invalid request body", err)
		return
	}

	e, outcome, err := h.svc.UpdateEntry(c.Request.Context(), id, req.patch())
	if err != nil {
		respondError(c, log, "UpdateEntry", err)
		return
	}

	log.Info("UpdateEntry: success", zap.String("reference", e.Reference), zap.String("notification", outcome.Status))
	c.JSON(http.StatusOK, gin.H{"entry": e, "notification": outcome})
}

func (h *RegisterHandler) DeleteEntry(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "DeleteEntry", "invalid risk id", err)
		return
	}
	log.Info("DeleteEntry request received", zap.Int("risk_id", id), zap.String("client_ip", c.ClientIP()))

	if err := h.svc.DeleteEntry(c.Request.Context(), id); err != nil {
		respondError(c, log, "DeleteEntry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
