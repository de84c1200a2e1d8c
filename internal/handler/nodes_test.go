package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tradenet/internal/apperr"
	"tradenet/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChainService returns canned responses so handler behavior can be
// exercised without a database.
type stubChainService struct {
	node *dto.NodeResponse
	err  error
}

func (s *stubChainService) CreateNode(context.Context, dto.CreateNodeRequest) (*dto.NodeResponse, error) {
	return s.node, s.err
}

func (s *stubChainService) GetNode(context.Context, uuid.UUID) (*dto.NodeResponse, error) {
	return s.node, s.err
}

func (s *stubChainService) ListNodes(context.Context, dto.NodeFilter) (*dto.NodeListResponse, error) {
	return &dto.NodeListResponse{Data: []dto.NodeResponse{}}, s.err
}

func (s *stubChainService) Factories(context.Context) ([]dto.NodeResponse, error) {
	return []dto.NodeResponse{}, s.err
}

func (s *stubChainService) SearchNodes(context.Context, string) ([]dto.NodeResponse, error) {
	return []dto.NodeResponse{}, s.err
}

func (s *stubChainService) UpdateNode(context.Context, uuid.UUID, dto.UpdateNodeRequest) (*dto.NodeResponse, error) {
	return s.node, s.err
}

func (s *stubChainService) DeleteNode(context.Context, uuid.UUID) error { return s.err }

func (s *stubChainService) ClearDebt(context.Context, []uuid.UUID) (int64, error) {
	return 0, s.err
}

func nodesTestRouter(svc *stubChainService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// nil cache client: invalidation must be a no-op, not a panic
	h := NewNodesHandler(svc, nil)
	r.POST("/v1/nodes", h.Create)
	r.PUT("/v1/nodes/:id", h.Update)
	r.DELETE("/v1/nodes/:id", h.Delete)
	return r
}

func TestNodesCreateWithoutCacheClient(t *testing.T) {
	node := &dto.NodeResponse{ID: uuid.NewString(), Name: "Volt Factory", LevelDisplay: "Factory"}
	r := nodesTestRouter(&stubChainService{node: node})

	body := `{"name":"Volt Factory","email":"v@example.com","country":"DE","city":"Berlin","street":"Hauptstrasse","house_number":"1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/nodes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Volt Factory")
}

func TestNodesUpdateMapsServiceErrors(t *testing.T) {
	r := nodesTestRouter(&stubChainService{err: apperr.Cycle("would become its own ancestor")})

	req := httptest.NewRequest(http.MethodPut, "/v1/nodes/"+uuid.NewString(), strings.NewReader(`{"name":"Reparented"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNodesDeleteWithoutCacheClient(t *testing.T) {
	r := nodesTestRouter(&stubChainService{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/nodes/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
