package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListSessions returns every registered session.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.svc.Sessions()
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one session.
func (h *Handlers) GetSession(c *gin.Context) {
	snap, err := h.svc.Session(c.Param("serial"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": snap})
}

// StartSession mirrors a device, replacing any running session for it.
func (h *Handlers) StartSession(c *gin.Context) {
	snap, err := h.svc.StartSession(c.Request.Context(), c.Param("serial"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "session": snap})
}

// StopSession stops a device's session.
func (h *Handlers) StopSession(c *gin.Context) {
	serial := c.Param("serial")
	if !h.svc.StopSession(serial) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   fmt.Sprintf("no mirroring session: %s", serial),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "serial": serial})
}

// RestartSession restarts a running session with the current options.
func (h *Handlers) RestartSession(c *gin.Context) {
	snap, err := h.svc.RestartSession(c.Request.Context(), c.Param("serial"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": snap})
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// WindowAction applies a window toggle or command to a session's window.
// A missing window is not an error; the response reports applied=false.
func (h *Handlers) WindowAction(c *gin.Context) {
	serial := c.Param("serial")
	action := c.Param("action")

	toggles := map[string]func(string, bool) (bool, error){
		"always-on-top": h.svc.SetAlwaysOnTop,
		"fullscreen":    h.svc.SetFullscreen,
		"borderless":    h.svc.SetBorderless,
		"aspect-lock":   h.svc.SetAspectLock,
	}
	commands := map[string]func(string) (bool, error){
		"focus":    h.svc.Focus,
		"minimize": h.svc.Minimize,
		"restore":  h.svc.Restore,
	}

	var (
		applied bool
		err     error
		body    = gin.H{"serial": serial, "action": action}
	)
	if toggle, ok := toggles[action]; ok {
		var req toggleRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			badRequest(c, bindErr)
			return
		}
		body["enabled"] = *req.Enabled
		applied, err = toggle(serial, *req.Enabled)
	} else if command, ok := commands[action]; ok {
		applied, err = command(serial)
	} else {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   fmt.Sprintf("unknown window action %q", action),
		})
		return
	}

	if err != nil {
		h.fail(c, err)
		return
	}
	body["success"] = true
	body["applied"] = applied
	c.JSON(http.StatusOK, body)
}
