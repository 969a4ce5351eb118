package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecowatch/api/internal/ecoerr"
	"ecowatch/api/internal/repository"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	users := h.users.List()
	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, userToResponse(user))
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}

type updateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	FullName *string `json:"fullName,omitempty"`
	Role     *string `json:"role,omitempty"`
	Status   *string `json:"status,omitempty"`
}

func (h HandlerSet) AdminUpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch, err := repository.PatchMap(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(patch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty update"})
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h HandlerSet) AdminDeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(ecoerr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) AdminStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Compute())
}
