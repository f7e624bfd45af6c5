package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/board"
	"projecthub/internal/model"
)

type BoardHandler struct {
	svc    *board.Service
	logger *zap.Logger
}

func NewBoardHandler(svc *board.Service, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{svc: svc, logger: logger}
}

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Assignee    *string  `json:"assignee"`
	StartDate   *string  `json:"start_date"`
	DueDate     *string  `json:"due_date"`
	EndDate     *string  `json:"end_date"`
	Tags        []string `json:"tags"`
}

type updateTaskRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Priority    *string  `json:"priority"`
	Assignee    *string  `json:"assignee"`
	StartDate   *string  `json:"start_date"`
	DueDate     *string  `json:"due_date"`
	EndDate     *string  `json:"end_date"`
	Tags        []string `json:"tags"`
}

// moveTaskRequest carries the caller's view of the source slot so stale views can be logged.
type moveTaskRequest struct {
	FromStatus string `json:"from_status"`
	FromIndex  int    `json:"from_index"`
	ToStatus   string `json:"to_status" binding:"required"`
	ToIndex    int    `json:"to_index"`
}

func (h *BoardHandler) GetBoard(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "GetBoard", "invalid project id", err)
		return
	}
	log.Debug("GetBoard request received", zap.Int("project_id", id))

	columns, err := h.svc.ListBoard(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, "GetBoard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": id, "columns": columns})
}

func (h *BoardHandler) CreateTask(c *gin.Context) {
	log := reqLogger(c, h.logger)
	projectID, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "CreateTask", "invalid project id", err)
		return
	}
	log.Info("CreateTask request received", zap.Int("project_id", projectID), zap.String("client_ip", c.ClientIP()))

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "CreateTask", "invalid request body", err)
		return
	}

	in := board.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskStatus(req.Status),
		Priority:    model.Priority(req.Priority),
		Assignee:    req.Assignee,
		Tags:        req.Tags,
	}
	if in.StartDate, err = parseDate(req.StartDate); err != nil {
		badRequest(c, log, "CreateTask", "invalid start_date", err)
		return
	}
	if in.DueDate, err = parseDate(req.DueDate); err != nil {
		badRequest(c, log, "CreateTask", "invalid due_date", err)
		return
	}
	if in.EndDate, err = parseDate(req.EndDate); err != nil {
		badRequest(c, log, "CreateTask", "invalid end_date", err)
		return
	}

	t, outcome, err := h.svc.CreateTask(c.Request.Context(), projectID, in)
	if err != nil {
		respondError(c, log, "CreateTask", err)
		return
	}

	log.Info("CreateTask: success", zap.Int("task_id", t.ID), zap.String("notification", outcome.Status))
	c.JSON(http.StatusCreated, gin.H{"task": t, "notification": outcome})
}

func (h *BoardHandler) GetTask(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "GetTask", "invalid task id", err)
		return
	}

	t, err := h.svc.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, "GetTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

func (h *BoardHandler) UpdateTask(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "UpdateTask", "invalid task id", err)
		return
	}
	log.Info("UpdateTask request received", zap.Int("task_id", id), zap.String("client_ip", c.ClientIP()))

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "UpdateTask", "invalid request body", err)
		return
	}

	patch := model.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		Tags:        req.Tags,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		patch.Priority = &p
	}
	if patch.StartDate, err = parseDate(req.StartDate); err != nil {
		badRequest(c, log, "UpdateTask", "invalid start_date", err)
		return
	}
	if patch.DueDate, err = parseDate(req.DueDate); err != nil {
		badRequest(c, log, "UpdateTask", "invalid due_date", err)
		return
	}
	if patch.EndDate, err = parseDate(req.EndDate); err != nil {
		badRequest(c, log, "UpdateTask", "invalid end_date", err)
		return
	}

	t, outcome, err := h.svc.UpdateTaskFields(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, log, "UpdateTask", err)
		return
	}

	log.Info("UpdateTask: success", zap.Int("task_id", id), zap.String("notification", outcome.Status))
	c.JSON(http.StatusOK, gin.H{"task": t, "notification": outcome})
}

func (h *BoardHandler) MoveTask(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "MoveTask", "invalid task id", err)
		return
	}
	log.Info("MoveTask request received", zap.Int("task_id", id), zap.String("client_ip", c.ClientIP()))

	var req moveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "MoveTask", "invalid request body", err)
		return
	}

	res, err := h.svc.MoveTask(c.Request.Context(), board.MoveRequest{
		TaskID:     id,
		FromStatus: model.TaskStatus(req.FromStatus),
		FromIndex:  req.FromIndex,
		ToStatus:   model.TaskStatus(req.ToStatus),
		ToIndex:    req.ToIndex,
	})
	if err != nil {
		respondError(c, log, "MoveTask", err)
		return
	}

	log.Info("MoveTask: success",
		zap.Int("task_id", id),
		zap.String("status", string(res.Task.Status)),
		zap.Int("position", res.Task.Position),
	)
	c.JSON(http.StatusOK, res)
}

func (h *BoardHandler) DeleteTask(c *gin.Context) {
	log := reqLogger(c, h.logger)
	id, err := pathID(c, "id")
	if err != nil {
		badRequest(c, log, "DeleteTask", "invalid task id", err)
		return
	}
	log.Info("DeleteTask request received", zap.Int("task_id", id), zap.String("client_ip", c.ClientIP()))

	if err := h.svc.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, log, "DeleteTask", err)
		return
	}

	log.Info("DeleteTask: success", zap.Int("task_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
