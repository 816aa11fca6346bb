package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/feed-client/internal/dto"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/gin-gonic/gin"
)

func (h *Handler) profilesGet(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidUserID.Error()))
		return
	}

	var (
		profile *model.Profile
		err     error
	)
	if c.Query("reload") == "true" {
		profile, err = h.services.Profiles.Reload(c.Request.Context(), userID)
	} else {
		profile, err = h.services.Profiles.Get(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(statusOf(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) profilesFollow(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidUserID.Error()))
		return
	}

	m, err := h.services.Mutations.ToggleFollow(c.Request.Context(), userID)
	if err != nil {
		c.JSON(statusOf(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	h.writeMutation(c, m)
}
