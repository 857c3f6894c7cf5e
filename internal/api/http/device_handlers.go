package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListDevices returns online devices with their mirroring state.
func (h *Handlers) ListDevices(c *gin.Context) {
	devices := h.svc.Devices(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"devices": devices,
		"count":   len(devices),
	})
}

// DeviceIP returns the device's Wi-Fi address.
func (h *Handlers) DeviceIP(c *gin.Context) {
	serial := c.Param("serial")
	ip, err := h.svc.DeviceIP(c.Request.Context(), serial)
	if err != nil {
		h.fail(c, err)
		return
	}
	bridgeResult(c, ip != "", gin.H{"serial": serial, "ip": ip})
}

// Connect connects to a device over TCP/IP.
func (h *Handlers) Connect(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		Port    int    `json:"port"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	addr, ok, err := h.svc.ConnectWireless(c.Request.Context(), req.Address, req.Port)
	if err != nil {
		h.fail(c, err)
		return
	}
	bridgeResult(c, ok, gin.H{"address": addr})
}

// Disconnect drops a wireless device and any session it had.
func (h *Handlers) Disconnect(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	addr, ok, err := h.svc.DisconnectWireless(c.Request.Context(), req.Address)
	if err != nil {
		h.fail(c, err)
		return
	}
	bridgeResult(c, ok, gin.H{"address": addr})
}

// EnableTCPMode switches a USB device's adbd to TCP.
func (h *Handlers) EnableTCPMode(c *gin.Context) {
	var req struct {
		Port int `json:"port"`
	}
	// The body is optional; the port defaults to 5555.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	serial := c.Param("serial")
	ok, err := h.svc.EnableTCPMode(c.Request.Context(), serial, req.Port)
	if err != nil {
		h.fail(c, err)
		return
	}
	bridgeResult(c, ok, gin.H{"serial": serial})
}

// SendKeyEvent injects a key event such as KEYCODE_HOME.
func (h *Handlers) SendKeyEvent(c *gin.Context) {
	var req struct {
		Keycode string `json:"keycode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	serial := c.Param("serial")
	ok, err := h.svc.SendKeyEvent(c.Request.Context(), serial, req.Keycode)
	if err != nil {
		h.fail(c, err)
		return
	}
	bridgeResult(c, ok, gin.H{"serial": serial, "keycode": req.Keycode})
}
