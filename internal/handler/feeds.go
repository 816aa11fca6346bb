package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/feed-client/internal/dto"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/gin-gonic/gin"
)

const viewContextKey = "view"

func globalView(*gin.Context) (model.ViewKey, error) {
	return model.GlobalView(), nil
}

func followingView(*gin.Context) (model.ViewKey, error) {
	return model.FollowingView(), nil
}

func profileView(c *gin.Context) (model.ViewKey, error) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		return model.ViewKey{}, errInvalidUserID
	}
	return model.ProfileView(userID), nil
}

func (h *Handler) viewMiddleware(resolve func(*gin.Context) (model.ViewKey, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := resolve(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
			c.Abort()
			return
		}
		c.Set(viewContextKey, key)
		c.Next()
	}
}

func (h *Handler) getViewFromRequest(c *gin.Context) model.ViewKey {
	key, _ := c.Get(viewContextKey)
	view, _ := key.(model.ViewKey)
	return view
}

func (h *Handler) feedsGet(c *gin.Context) {
	h.writeSnapshot(c, h.getViewFromRequest(c))
}

func (h *Handler) feedsMore(c *gin.Context) {
	key := h.getViewFromRequest(c)

	if err := h.services.Feed.LoadMore(c.Request.Context(), key); err != nil {
		h.logger.Sugar().Debugf("load more of view(%s) failed: %s", key.String(), err.Error())
	}

	h.writeSnapshot(c, key)
}

func (h *Handler) feedsRefresh(c *gin.Context) {
	key := h.getViewFromRequest(c)

	if err := h.services.Feed.Refresh(c.Request.Context(), key); err != nil {
		h.logger.Sugar().Debugf("refresh of view(%s) failed: %s", key.String(), err.Error())
	}

	h.writeSnapshot(c, key)
}

func (h *Handler) feedsDiscard(c *gin.Context) {
	key := h.getViewFromRequest(c)

	if err := h.services.Feed.Discard(c.Request.Context(), key); err != nil {
		c.JSON(statusOf(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

// writeSnapshot answers with the view as the display layer should render it.
// Load failures are part of the snapshot, not an HTTP error.
func (h *Handler) writeSnapshot(c *gin.Context, key model.ViewKey) {
	view, err := h.services.Feed.Snapshot(c.Request.Context(), key)
	if err != nil {
		c.JSON(statusOf(err), dto.NewBasicResponse(false, err.Error()))
		return
	}

	c.JSON(http.StatusOK, view)
}
