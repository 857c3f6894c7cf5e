package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the control API on r.
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/status", h.Status)

	// Devices
	r.GET("/devices", h.ListDevices)
	r.GET("/devices/:serial/ip", h.DeviceIP)
	r.POST("/devices/connect", h.Connect)
	r.POST("/devices/disconnect", h.Disconnect)
	r.POST("/devices/:serial/tcpip", h.EnableTCPMode)
	r.POST("/devices/:serial/keyevent", h.SendKeyEvent)

	// Sessions
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:serial", h.GetSession)
	r.POST("/sessions/:serial", h.StartSession)
	r.DELETE("/sessions/:serial", h.StopSession)
	r.POST("/sessions/:serial/restart", h.RestartSession)
	r.POST("/sessions/:serial/window/:action", h.WindowAction)

	// Global options and policies
	r.GET("/options", h.GetOptions)
	r.PUT("/options", h.UpdateOptions)
	r.PUT("/policies/:name", h.ApplyPolicy)
}
