// Package address defines the (identifier, device-id) value used to key
// per-remote session state, the job queue, and the storage layer.
package address

import "fmt"

// ProtocolAddress identifies a single device belonging to a remote party.
type ProtocolAddress struct {
	ID       string
	DeviceID uint32
}

// New constructs a ProtocolAddress.
func New(id string, deviceID uint32) ProtocolAddress {
	return ProtocolAddress{ID: id, DeviceID: deviceID}
}

// String renders "id.deviceId", the canonical storage/job-queue key form.
func (a ProtocolAddress) String() string {
	return fmt.Sprintf("%s.%d", a.ID, a.DeviceID)
}

// Equals reports whether two addresses name the same remote device.
func (a ProtocolAddress) Equals(other ProtocolAddress) bool {
	return a.ID == other.ID && a.DeviceID == other.DeviceID
}
