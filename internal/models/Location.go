package models

// Location is the geodetic position of the craft at one epoch. Latitude and
// longitude are WGS84 degrees, altitude is km above the ellipsoid.
type Location struct {
	Epoch       string  `json:"epoch" example:"2025-047T12:00:00.000Z"`
	Latitude    float64 `json:"latitude" example:"8.3252"`
	Longitude   float64 `json:"longitude" example:"-52.1459"`
	Altitude    float64 `json:"altitude" example:"422.7541"`
	Geoposition string  `json:"geoposition" example:"Amapá, Brazil"`
}

// NowStatus is the full answer for the closest-epoch-to-now query.
type NowStatus struct {
	StateVector  StateVector
	Speed        float64
	Location     Location
	DeltaSeconds float64
}
