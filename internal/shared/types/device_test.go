package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeRatio(t *testing.T) {
	assert.InDelta(t, 0.45, Size{Width: 1080, Height: 2400}.Ratio(), 1e-9)
	assert.Zero(t, Size{Width: 1080}.Ratio())
	assert.Equal(t, "1080x2400", Size{Width: 1080, Height: 2400}.String())
}

func TestIsWirelessSerial(t *testing.T) {
	assert.True(t, IsWirelessSerial("192.168.1.20:5555"))
	assert.False(t, IsWirelessSerial("R58M12ABCDE"))
}
