package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tradenet/internal/dto"
	"tradenet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	factoriesCacheKey = "nodes:factories"
	factoriesCacheTTL = 5 * time.Minute
)

// FactoriesHandler serves the public factory directory (level-0 nodes).
// Read-only and cheap to cache: factories change far less often than the
// rest of the network, so responses are served from Redis when possible.
type FactoriesHandler struct {
	svc service.ChainService
	rdb *redis.Client
}

func NewFactoriesHandler(svc service.ChainService, rdb *redis.Client) *FactoriesHandler {
	return &FactoriesHandler{svc: svc, rdb: rdb}
}

func (h *FactoriesHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, factoriesCacheKey).Bytes(); err == nil {
			var resp []dto.NodeResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	resp, err := h.svc.Factories(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	// Populate cache, best effort
	if h.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = h.rdb.Set(context.Background(), factoriesCacheKey, b, factoriesCacheTTL).Err()
		}
	}

	c.JSON(http.StatusOK, resp)
}
