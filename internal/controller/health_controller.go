package controller

import (
	"context"
	"net/http"
	"time"

	"educorp_backend/internal/util"
	"educorp_backend/pkg/docstore"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type HealthController struct {
	Store docstore.Gateway
	Redis *redis.Client
}

func NewHealthController(store docstore.Gateway, rdb *redis.Client) *HealthController {
	return &HealthController{Store: store, Redis: rdb}
}

// @Summary Health check
// @Description Reports whether the document store and session cache answer
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := c.Store.Ping(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Document store unavailable")
		return
	}

	components := gin.H{"store": "up"}
	if c.Redis != nil {
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Session cache unavailable")
			return
		}
		components["sessions"] = "up"
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
