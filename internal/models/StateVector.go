package models

import (
	"math"
	"time"
)

// EpochLayout is the timestamp format used by the OEM feed: year, day of
// year, and time of day, always UTC (e.g. "2025-047T12:00:00.000Z").
const EpochLayout = "2006-002T15:04:05.000Z"

// StateVector is a single ephemeris record: the craft's position (km) and
// velocity (km/s) in the J2000 Earth-centered inertial frame at one epoch.
type StateVector struct {
	Epoch string  `json:"epoch" example:"2025-047T12:00:00.000Z"`
	X     float64 `json:"x" example:"-4945.2766642"`
	Y     float64 `json:"y" example:"-3625.9704454"`
	Z     float64 `json:"z" example:"-2944.7433196"`
	XDot  float64 `json:"x_dot" example:"3.9220001"`
	YDot  float64 `json:"y_dot" example:"-0.0008501"`
	ZDot  float64 `json:"z_dot" example:"-6.5798019"`
}

// Speed returns the magnitude of the velocity vector in km/s.
func (sv *StateVector) Speed() float64 {
	return math.Sqrt(sv.XDot*sv.XDot + sv.YDot*sv.YDot + sv.ZDot*sv.ZDot)
}

// EpochTime parses the record's epoch string.
func (sv *StateVector) EpochTime() (time.Time, error) {
	return time.Parse(EpochLayout, sv.Epoch)
}
