package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecowatch/api/internal/ecoerr"
	"ecowatch/api/internal/middleware"
)

func (h HandlerSet) ListNotifications(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.users.FindByUsername(c.Request.Context(), actor.Username)
	if err != nil {
		c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": h.notifications.ListForUser(user.ID)})
}

func (h HandlerSet) MarkNotificationRead(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	notification, err := h.notifications.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.FindByUsername(c.Request.Context(), actor.Username)
	if err != nil || notification.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	updated, err := h.notifications.MarkRead(c.Request.Context(), id)
	if err != nil {
		c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, updated)
}
