package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/command"
)

// GetOptions returns the global options and the accepted values.
func (h *Handlers) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"options": h.svc.Options(),
		"choices": gin.H{
			"max_size": command.MaxSizes,
			"max_fps":  command.FrameRates,
			"codec":    command.Codecs,
			"bitrate":  []int{command.MinBitrate, command.MaxBitrate},
			"presets":  command.PresetNames(),
		},
	})
}

// UpdateOptions replaces the global options. Fields left out of the body
// keep their current value, or the named preset's value when "preset" is
// given.
func (h *Handlers) UpdateOptions(c *gin.Context) {
	var head struct {
		Preset string `json:"preset"`
	}
	if err := c.ShouldBindBodyWith(&head, binding.JSON); err != nil {
		badRequest(c, err)
		return
	}

	base := h.svc.Options()
	if head.Preset != "" {
		preset, err := command.Preset(head.Preset)
		if err != nil {
			h.fail(c, err)
			return
		}
		base = preset
	}
	if err := c.ShouldBindBodyWith(&base, binding.JSON); err != nil {
		badRequest(c, err)
		return
	}

	opts, err := h.svc.UpdateOptions(c.Request.Context(), base)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "options": opts})
}

// ApplyPolicy sets one global policy and pushes it to every session.
func (h *Handlers) ApplyPolicy(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	name := c.Param("name")
	n, err := h.svc.ApplyPolicy(c.Request.Context(), name, *req.Enabled)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"policy":  name,
		"enabled": *req.Enabled,
		"applied": n,
	})
}
