package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	listenerCookie = "cc_listener"
	listenerMaxAge = 365 * 24 * 60 * 60
)

// listenerID returns the browser's listener id, issuing a cookie on first
// visit. Likes, playlists and the player are keyed by it.
func (m *Manager) listenerID(c *gin.Context) string {
	if id, ok := c.Get(listenerCookie); ok {
		return id.(string)
	}
	if value, err := c.Cookie(listenerCookie); err == nil {
		if id, err := uuid.Parse(value); err == nil {
			c.Set(listenerCookie, id.String())
			return id.String()
		}
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(listenerCookie, id, listenerMaxAge, "/", "", false, true)
	c.Set(listenerCookie, id)
	return id
}
