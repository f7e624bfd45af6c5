package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/changerequest"
	"projecthub/internal/model"
)

type ChangeRequestHandler struct {
	svc    *changerequest.Service
	logger *zap.Logger
}

func NewChangeRequestHandler(svc *changerequest.Service, logger *zap.Logger) *ChangeRequestHandler {
	return &ChangeRequestHandler{svc: svc, logger: logger}
}

type createChangeRequestRequest struct {
	Title            string  `json:"title"`
	Reason           string  `json:"reason"`
	Impact           string  `json:"impact"`
	ProposedEndDate  *string `json:"proposed_end_date"`
	RequestedBy      string  `json:"requested_by"`
	GenerateDocument bool    `json:"generate_document"`
}

type resolveRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Notes   string `json:"notes"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *ChangeRequestHandler) List(c *gin.Context) {
	log := reqLogger(c, h.logger)
	projectID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "ListChangeRequests", "invalid project id", err)
		return
	}

	list, err := h.svc.List(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, log, "ListChangeRequests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"change_requests": list})
}

func (h *ChangeRequestHandler) Create(c *gin.Context) {
	log := reqLogger(c, h.logger)
	projectID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "CreateChangeRequest", "invalid project id", err)
		return
	}
	log.Info("CreateChangeRequest request received", zap.Int("project_id", projectID), zap.String("client_ip", c.ClientIP()))

	var req createChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "CreateChangeRequest", "invalid request body", err)
		return
	}
	proposed, err := parseDate(req.ProposedEndDate)
	if err != nil {
		badRequest(c, log, "CreateChangeRequest", "invalid proposed_end_date", err)
		return
	}

	cr, err := h.svc.Create(c.Request.Context(), projectID, changerequest.NewChangeRequest{
		Title:            req.Title,
		Reason:           req.Reason,
		Impact:           req.Impact,
		ProposedEndDate:  proposed,
		RequestedBy:      req.RequestedBy,
		GenerateDocument: req.GenerateDocument,
	})
	if err != nil {
		respondError(c, log, "CreateChangeRequest", err)
		return
	}

	log.Info("CreateChangeRequest: success", zap.Int("pcr_id", cr.ID), zap.String("reference", cr.Reference))
	c.JSON(http.StatusCreated, gin.H{"change_request": cr})
}

func (h *ChangeRequestHandler) Get(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "GetChangeRequest", "invalid change request id", err)
		return
	}

	cr, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, "GetChangeRequest", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"change_request": cr})
}

// Resolve approves or rejects a pending request. When the status was written but the project end
// date was not, the body carries both the error and the resolved request.
func (h *ChangeRequestHandler) Resolve(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "ResolveChangeRequest", "invalid change request id", err)
		return
	}
	log.Info("ResolveChangeRequest request received",
		zap.Int("pcr_id", id),
		zap.Int("user_id", currentUserID(c)),
		zap.String("client_ip", c.ClientIP()),
	)

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "ResolveChangeRequest", "invalid request body", err)
		return
	}

	cr, outcome, err := h.svc.Resolve(c.Request.Context(), id, model.PCRStatus(req.Outcome), req.Notes, currentUserID(c))
	if err != nil {
		if cr != nil {
			log.Error("ResolveChangeRequest: resolved without schedule commit",
				zap.Int("pcr_id", id),
				zap.Error(err),
			)
			msg := "resolved but project end date not applied"
			var ae *apperr.Error
			if errors.As(err, &ae) {
				msg = ae.Message
			}
			c.JSON(StatusFor(err), gin.H{
				"error":          gin.H{"code": "partial_commit", "entity": "change_request", "op": "resolve", "message": msg},
				"change_request": cr,
			})
			return
		}
		respondError(c, log, "ResolveChangeRequest", err)
		return
	}

	log.Info("ResolveChangeRequest: success",
		zap.String("reference", cr.Reference),
		zap.String("status", string(cr.Status)),
		zap.String("notification", outcome.Status),
	)
	c.JSON(http.StatusOK, gin.H{"change_request": cr, "notification": outcome})
}

func (h *ChangeRequestHandler) Reapply(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "ReapplyApproval", "invalid change request id", err)
		return
	}
	log.Info("ReapplyApproval request received", zap.Int("pcr_id", id), zap.String("client_ip", c.ClientIP()))

	p, err := h.svc.ReapplyApproval(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, "ReapplyApproval", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *ChangeRequestHandler) UpdateNotes(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "UpdateNotes", "invalid change request id", err)
		return
	}

	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "UpdateNotes", "invalid request body", err)
		return
	}

	cr, err := h.svc.UpdateNotes(c.Request.Context(), id, req.Notes)
	if err != nil {
		respondError(c, log, "UpdateNotes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"change_request": cr})
}

func (h *ChangeRequestHandler) GenerateDocument(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "GenerateDocument", "invalid change request id", err)
		return
	}
	log.Info("GenerateDocument request received", zap.Int("pcr_id", id))

	cr, err := h.svc.GenerateDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, "GenerateDocument", err)
		return
	}

	log.Info("GenerateDocument: success", zap.Int("pcr_id", id), zap.Bool("degraded", cr.DocumentDegraded))
	c.JSON(http.StatusOK, gin.H{"change_request": cr})
}
