package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecowatch/api/internal/middleware"
)

type healthResponse struct {
	Status      string `json:"status"`
	Store       string `json:"store"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	storeStatus := "ok"
	if err := h.kv.Ping(ctx); err != nil {
		storeStatus = "error"
		h.log.Error().Err(err).Msg("store ping failed")
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Store:       storeStatus,
		Environment: h.cfg.Environment,
	})
}

func (h HandlerSet) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "home"})
}

// UserHome is the citizen landing view: profile plus own submissions.
func (h HandlerSet) UserHome(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.users.FindByUsername(c.Request.Context(), actor.Username)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"reports": h.reports.ListByAuthor(actor.Username)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    userToResponse(user),
		"reports": h.reports.ListByAuthor(actor.Username),
	})
}
