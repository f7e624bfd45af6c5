package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/health"
	"projecthub/internal/model"
	"projecthub/internal/project"
)

type ProjectHandler struct {
	projects *project.Service
	health   *health.Service
	logger   *zap.Logger
}

func NewProjectHandler(projects *project.Service, health *health.Service, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, health: health, logger: logger}
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Color       string  `json:"color"`
}

type updateProjectRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	ClearEndDate bool    `json:"clear_end_date"`
	Status       *string `json:"status"`
	Color        *string `json:"color"`
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	log := reqLogger(c, h.logger)
	log.Info("ListProjects request received", zap.String("client_ip", c.ClientIP()))

	ownerID := 0
	if c.Query("mine") == "true" {
		ownerID = currentUserID(c)
	}

	projects, err := h.projects.List(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, log, "ListProjects", err)
		return
	}

	// Cached reports only; a miss is left out rather than computed.
	cached := make(map[int]*health.Report)
	for _, p := range projects {
		if report, ok := h.health.CachedHealth(c.Request.Context(), p.ID); ok {
			cached[p.ID] = report
		}
	}

	log.Info("ListProjects: success",
		zap.Int("project_count", len(projects)),
		zap.Int("cached_health", len(cached)),
	)
	c.JSON(http.StatusOK, gin.H{"projects": projects, "health": cached})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	log := reqLogger(c, h.logger)
	log.Info("CreateProject request received", zap.String("client_ip", c.ClientIP()))

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "CreateProject", "invalid request body", err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		badRequest(c, log, "CreateProject", "invalid start_date", err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		badRequest(c, log, "CreateProject", "invalid end_date", err)
		return
	}

	p, err := h.projects.Create(c.Request.Context(), currentUserID(c), project.NewProject{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Color:       req.Color,
	})
	if err != nil {
		respondError(c, log, "CreateProject", err)
		return
	}

	log.Info("CreateProject: success", zap.Int("project_id", p.ID))
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "GetProject", "invalid project id", err)
		return
	}
	log.Debug("GetProject request received", zap.Int("project_id", id))

	p, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, "GetProject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "UpdateProject", "invalid project id", err)
		return
	}
	log.Info("UpdateProject request received", zap.Int("project_id", id), zap.String("client_ip", c.ClientIP()))

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "UpdateProject", "invalid request body", err)
		return
	}

	patch := model.ProjectPatch{
		Name:         req.Name,
		Description:  req.Description,
		ClearEndDate: req.ClearEndDate,
		Color:        req.Color,
	}
	if patch.StartDate, err = parseDate(req.StartDate); err != nil {
		badRequest(c, log, "UpdateProject", "invalid start_date", err)
		return
	}
	if patch.EndDate, err = parseDate(req.EndDate); err != nil {
		badRequest(c, log, "UpdateProject", "invalid end_date", err)
		return
	}
	if req.Status != nil {
		status, err := model.ParseProjectStatus(*req.Status)
		if err != nil {
			badRequest(c, log, "UpdateProject", "invalid status", err)
			return
		}
		patch.Status = &status
	}

	p, err := h.projects.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, log, "UpdateProject", err)
		return
	}

	log.Info("UpdateProject: success", zap.Int("project_id", id))
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *ProjectHandler) GetHealth(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "GetHealth", "invalid project id", err)
		return
	}
	log.Debug("GetHealth request received", zap.Int("project_id", id))

	report, err := h.health.ComputeProjectHealth(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, "GetHealth", err)
		return
	}

	log.Info("GetHealth: success", zap.Int("project_id", id), zap.String("rag_status", string(report.RAG)))
	c.JSON(http.StatusOK, gin.H{"health": report})
}
