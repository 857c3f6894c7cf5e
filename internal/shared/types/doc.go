// Package types provides data structures shared between the device bridge,
// the domain services and the control API.
//
// Core Types:
//   - Device: a device reported by adb
//   - Size: a width/height pair with its aspect ratio
package types
