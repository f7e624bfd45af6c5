// Package handler exposes the workflow services over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/pkg/logger"
)

const dateLayout = "2006-01-02"

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindIllegalState: http.StatusConflict,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindUnauthorized: http.StatusUnauthorized,
	apperr.KindCollaborator: http.StatusBadGateway,
	apperr.KindInternal:     http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError renders err as {"error": {...}} and logs it at a level matching its kind.
func respondError(c *gin.Context, log *zap.Logger, action string, err error) {
	status := StatusFor(err)
	body := gin.H{"code": string(apperr.KindOf(err))}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		body["entity"] = ae.Entity
		body["op"] = ae.Op
		body["message"] = ae.Message
	} else {
		body["message"] = "unexpected failure"
	}
	if status >= http.StatusInternalServerError {
		// internal details stay in the log
		if ae != nil && ae.Kind == apperr.KindInternal {
			body["message"] = "unexpected failure"
		}
		log.Error(action+": failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Warn(action+": rejected", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": body})
}

func badRequest(c *gin.Context, log *zap.Logger, action, message string, err error) {
	log.Warn(action+": "+message, zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": string(apperr.KindValidation), "message": message}})
}

// reqLogger is the handler logger carrying the request's trace id.
func reqLogger(c *gin.Context, base *zap.Logger) *zap.Logger {
	return logger.WithTrace(c.Request.Context(), base)
}

func pathID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func currentUserID(c *gin.Context) int {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

// parseDate reads an optional YYYY-MM-DD value.
func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
