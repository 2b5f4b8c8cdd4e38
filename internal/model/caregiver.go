package model

import "sort"

// Caregiver is one monitoring contact for a device. Priority defines the
// notification order, ascending: priority 1 is called first.
type Caregiver struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Priority int    `json:"priority"`
}

// SortCaregivers orders a roster by ascending priority in place.
// Equal priorities keep their relative order.
func SortCaregivers(roster []*Caregiver) {
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Priority < roster[j].Priority
	})
}
