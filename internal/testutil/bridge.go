// Package testutil provides mocks and helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/mirrordeck/internal/shared/types"
)

// MockBridge is a testify mock of the device bridge.
type MockBridge struct {
	mock.Mock
}

// ListDevices mocks the ListDevices method.
func (m *MockBridge) ListDevices(ctx context.Context) []types.Device {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]types.Device)
}

// Shell mocks the Shell method.
func (m *MockBridge) Shell(ctx context.Context, serial, command string) string {
	args := m.Called(ctx, serial, command)
	return args.String(0)
}

// EnableTCPMode mocks the EnableTCPMode method.
func (m *MockBridge) EnableTCPMode(ctx context.Context, serial string, port int) bool {
	args := m.Called(ctx, serial, port)
	return args.Bool(0)
}

// Connect mocks the Connect method.
func (m *MockBridge) Connect(ctx context.Context, address string) bool {
	args := m.Called(ctx, address)
	return args.Bool(0)
}

// Disconnect mocks the Disconnect method.
func (m *MockBridge) Disconnect(ctx context.Context, address string) bool {
	args := m.Called(ctx, address)
	return args.Bool(0)
}

// Model mocks the Model method.
func (m *MockBridge) Model(ctx context.Context, serial string) (string, bool) {
	args := m.Called(ctx, serial)
	return args.String(0), args.Bool(1)
}

// DeviceIP mocks the DeviceIP method.
func (m *MockBridge) DeviceIP(ctx context.Context, serial string) string {
	args := m.Called(ctx, serial)
	return args.String(0)
}

// PhysicalSize mocks the PhysicalSize method.
func (m *MockBridge) PhysicalSize(ctx context.Context, serial string) (types.Size, bool) {
	args := m.Called(ctx, serial)
	return args.Get(0).(types.Size), args.Bool(1)
}

// SendKeyEvent mocks the SendKeyEvent method.
func (m *MockBridge) SendKeyEvent(ctx context.Context, serial, keycode string) bool {
	args := m.Called(ctx, serial, keycode)
	return args.Bool(0)
}

// SetStayAwake mocks the SetStayAwake method.
func (m *MockBridge) SetStayAwake(ctx context.Context, serial string, enabled bool) bool {
	args := m.Called(ctx, serial, enabled)
	return args.Bool(0)
}

// NewMockBridge creates a bridge mock that asserts its expectations when
// the test ends.
func NewMockBridge(t *testing.T) *MockBridge {
	t.Helper()
	m := new(MockBridge)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// WithModel makes Model return model for serial. An empty model makes the
// lookup fail.
func (m *MockBridge) WithModel(serial, model string) *MockBridge {
	m.On("Model", mock.Anything, serial).Return(model, model != "").Maybe()
	return m
}

// WithPhysicalSize makes PhysicalSize return size for serial. A zero size
// makes the lookup fail.
func (m *MockBridge) WithPhysicalSize(serial string, size types.Size) *MockBridge {
	m.On("PhysicalSize", mock.Anything, serial).Return(size, size.Valid()).Maybe()
	return m
}
