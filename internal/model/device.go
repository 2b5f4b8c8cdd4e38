package model

import (
	"time"
)

// DeviceStatus is the authoritative emergency state of a wearable device.
// The string values are wire-level constants shared with every client.
type DeviceStatus string

const (
	StatusSafe      DeviceStatus = "SAFE"
	StatusFall      DeviceStatus = "FALL"
	StatusSOS       DeviceStatus = "SOS"
	StatusAmbulance DeviceStatus = "AMBULANCE"
)

// String returns the string representation of the status.
func (s DeviceStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s DeviceStatus) IsValid() bool {
	switch s {
	case StatusSafe, StatusFall, StatusSOS, StatusAmbulance:
		return true
	}
	return false
}

// IsEmergency reports whether the status represents an active emergency.
func (s DeviceStatus) IsEmergency() bool {
	return s == StatusFall || s == StatusSOS || s == StatusAmbulance
}

// ActorRole classifies who performed an action on a device.
type ActorRole string

const (
	// RoleElderly is the wearer of the device.
	RoleElderly ActorRole = "elderly"
	// RoleCaregiver is a monitoring party with escalate privileges.
	RoleCaregiver ActorRole = "caregiver"
	// RoleDevice marks hardware-origin signals (fall sensor, SOS button).
	RoleDevice ActorRole = "device"
)

// String returns the string representation of the role.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid checks whether the role is a known value.
func (r ActorRole) IsValid() bool {
	switch r {
	case RoleElderly, RoleCaregiver, RoleDevice:
		return true
	}
	return false
}

// Vitals is the most recent sensor reading reported for a device.
// Vitals and status are written independently; a reader may observe a
// fresh status next to stale vitals until the next push.
type Vitals struct {
	HeartRate int `json:"heart_rate"` // bpm
	SpO2      int `json:"spo2"`       // percent, 0-100
	Battery   int `json:"battery"`    // percent, 0-100
}

// Device is the shared mutable record for one physical wearable.
type Device struct {
	ID              string       `json:"id"`
	Status          DeviceStatus `json:"status"`
	Vitals          Vitals       `json:"vitals"`
	LastUpdate      time.Time    `json:"last_update"`
	PairedWearerRef string       `json:"paired_wearer_ref,omitempty"`
}

// DefaultVitals is the baseline reading assigned when a device is first paired.
func DefaultVitals() Vitals {
	return Vitals{HeartRate: 72, SpO2: 98, Battery: 100}
}
