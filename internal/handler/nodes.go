package handler

import (
	"context"
	"net/http"

	"tradenet/internal/apierror"
	"tradenet/internal/dto"
	"tradenet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type NodesHandler struct {
	svc service.ChainService
	rdb *redis.Client
}

func NewNodesHandler(svc service.ChainService, rdb *redis.Client) *NodesHandler {
	return &NodesHandler{svc: svc, rdb: rdb}
}

// invalidateFactories drops the cached factory directory after any node
// mutation. Best effort, the entry expires on its own anyway.
func (h *NodesHandler) invalidateFactories() {
	if h.rdb != nil {
		_ = h.rdb.Del(context.Background(), factoriesCacheKey).Err()
	}
}

func (h *NodesHandler) Create(c *gin.Context) {
	var req dto.CreateNodeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateNode(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.invalidateFactories()
	c.JSON(http.StatusCreated, resp)
}

func (h *NodesHandler) List(c *gin.Context) {
	var filter dto.NodeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListNodes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NodesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetNode(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NodesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.UpdateNodeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateNode(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.invalidateFactories()
	c.JSON(http.StatusOK, resp)
}

func (h *NodesHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.DeleteNode(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.invalidateFactories()
	c.Status(http.StatusNoContent)
}

func (h *NodesHandler) Search(c *gin.Context) {
	resp, err := h.svc.SearchNodes(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NodesHandler) ClearDebt(c *gin.Context) {
	var req dto.ClearDebtRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, apierror.New("invalid id: "+raw))
			return
		}
		ids = append(ids, id)
	}
	count, err := h.svc.ClearDebt(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	if count > 0 {
		h.invalidateFactories()
	}
	c.JSON(http.StatusOK, dto.ClearDebtResponse{UpdatedCount: count})
}
