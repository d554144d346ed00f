// model/resource.go
package model

import "time"

type ResourceKind string

const (
	ResourceUnit    ResourceKind = "unit"
	ResourceCrew    ResourceKind = "crew"
	ResourceVehicle ResourceKind = "vehicle"
)

// OpsResource is a delivery crew or a vehicle: a capacity-1 schedulable resource
// that can serve at most one delivery or pickup leg at a time.
type OpsResource struct {
	ID     int64        `json:"id"`
	Kind   ResourceKind `json:"kind"`
	Name   string       `json:"name"`
	Active bool         `json:"active"`
	// Working window for the queried weekday, minutes from midnight.
	DayStartMin int `json:"day_start_min"`
	DayEndMin   int `json:"day_end_min"`
}

// CoversWindow reports whether the resource's working hours on its queried day
// contain [from, to) expressed on the same calendar day.
func (r *OpsResource) CoversWindow(from, to time.Time) bool {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	start := day.Add(time.Duration(r.DayStartMin) * time.Minute)
	end := day.Add(time.Duration(r.DayEndMin) * time.Minute)
	return !from.Before(start) && !to.After(end)
}
