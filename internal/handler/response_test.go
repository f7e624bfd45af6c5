package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecthub/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("task", "create", "title is required"), http.StatusBadRequest},
		{apperr.NotFound("task", "get", 3), http.StatusNotFound},
		{apperr.IllegalState("change_request", "resolve", "already approved"), http.StatusConflict},
		{apperr.Forbidden("change_request", "resolve", "no"), http.StatusForbidden},
		{apperr.Unauthorized("user", "login", "bad"), http.StatusUnauthorized},
		{&apperr.Error{Kind: apperr.KindCollaborator, Entity: "text", Op: "generate"}, http.StatusBadGateway},
		{apperr.Internal("task", "move", errors.New("boom")), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("risk", "get", 1)), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		respondError(c, zap.NewNop(), "X", apperr.Internal("task", "move", errors.New("pq: relation missing")))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation missing")

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Entity  string `json:"entity"`
			Op      string `json:"op"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Error.Code)
	assert.Equal(t, "task", body.Error.Entity)
	assert.Equal(t, "move", body.Error.Op)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate(nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	raw := "2025-07-01"
	d, err = parseDate(&raw)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2025-07-01", d.Format(dateLayout))

	bad := "07/01/2025"
	_, err = parseDate(&bad)
	assert.Error(t, err)
}
