package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/feed-client/internal/dto"
	"github.com/BloggingApp/feed-client/internal/mutation"
	"github.com/gin-gonic/gin"
)

func (h *Handler) postsCreate(c *gin.Context) {
	var input dto.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	m, err := h.services.Mutations.CreatePost(c.Request.Context(), input.Content)
	if err != nil {
		c.JSON(statusOf(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	h.writeMutation(c, m)
}

func (h *Handler) postsLike(c *gin.Context) {
	postID := strings.TrimSpace(c.Param("postID"))
	if postID == "" {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	m, err := h.services.Mutations.ToggleLike(c.Request.Context(), postID)
	if err != nil {
		c.JSON(statusOf(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	h.writeMutation(c, m)
}

// writeMutation answers right away with the pending mutation, or with its
// outcome when the request asks to wait.
func (h *Handler) writeMutation(c *gin.Context, m *mutation.Mutation) {
	if c.Query("wait") == "true" {
		if err := m.Wait(c.Request.Context()); err != nil {
			h.logger.Sugar().Debugf("wait for %s(%s) as mutation(%s) ended: %s", m.Kind, m.Target, m.ID.String(), err.Error())
		}
	}

	resp := dto.NewMutationResponse(m)
	status := http.StatusAccepted
	switch resp.State {
	case mutation.Confirmed.String():
		status = http.StatusOK
	case mutation.RolledBack.String():
		status = statusOf(m.Err())
	}

	c.JSON(status, resp)
}
