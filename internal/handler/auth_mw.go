package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/feed-client/internal/dto"
	"github.com/BloggingApp/feed-client/pkg/utils"
	"github.com/gin-gonic/gin"
)

// authMiddleware only lets through requests carrying a token for the viewer
// this client acts as.
func (h *Handler) authMiddleware(c *gin.Context) {
	if h.cfg.TokenSecret == "" {
		c.Next()
		return
	}

	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		c.Abort()
		return
	}

	accessToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		c.Abort()
		return
	}

	viewer, err := utils.ViewerFromToken(accessToken, []byte(h.cfg.TokenSecret))
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		c.Abort()
		return
	}

	if viewer.ID != h.services.Viewer().ID {
		c.JSON(http.StatusForbidden, dto.NewBasicResponse(false, errForbidden.Error()))
		c.Abort()
		return
	}

	c.Next()
}
