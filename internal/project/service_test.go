package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecthub/internal/apperr"
	"projecthub/internal/health"
	"projecthub/internal/model"
	"projecthub/internal/repository/memory"
)

type staticHealth map[int]*health.Report

func (s staticHealth) CachedHealth(_ context.Context, id int) (*health.Report, bool) {
	r, ok := s[id]
	return r, ok
}

func TestCreateAndList(t *testing.T) {
	repos := memory.NewStore().Repositories()
	cached := staticHealth{}
	svc := NewService(repos, cached, zap.NewNop())

	p, err := svc.Create(context.Background(), 3, NewProject{Name: " Apollo "})
	require.NoError(t, err)
	assert.Equal(t, "Apollo", p.Name)
	assert.Equal(t, model.ProjectActive, p.Status)
	assert.NotEmpty(t, p.Color)

	_, err = svc.Create(context.Background(), 4, NewProject{Name: "Gemini"})
	require.NoError(t, err)

	cached[p.ID] = &health.Report{ProjectID: p.ID, RAG: model.RAGAmber}

	mine, err := svc.List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Health)
	assert.Equal(t, model.RAGAmber, mine[0].Health.RAG)

	all, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Nil(t, all[1].Health)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(memory.NewStore().Repositories(), nil, zap.NewNop())

	_, err := svc.Create(context.Background(), 1, NewProject{Name: ""})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err = svc.Create(context.Background(), 1, NewProject{Name: "x", StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdate(t *testing.T) {
	svc := NewService(memory.NewStore().Repositories(), nil, zap.NewNop())
	p, err := svc.Create(context.Background(), 1, NewProject{Name: "Apollo"})
	require.NoError(t, err)

	end := time.Date(2025, 9, 30, 15, 0, 0, 0, time.UTC)
	status := model.ProjectOnHold
	updated, err := svc.Update(context.Background(), p.ID, model.ProjectPatch{EndDate: &end, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), *updated.EndDate)
	assert.Equal(t, model.ProjectOnHold, updated.Status)

	updated, err = svc.Update(context.Background(), p.ID, model.ProjectPatch{ClearEndDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.EndDate)

	bad := model.ProjectStatus("archived")
	_, err = svc.Update(context.Background(), p.ID, model.ProjectPatch{Status: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(context.Background(), 99, model.ProjectPatch{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
