package tracker

import (
	"math"
	"time"
)

// WGS84 ellipsoid, kilometers.
const (
	wgs84A = 6378.137
	wgs84F = 1.0 / 298.257223563
)

// eciToGeodetic converts a J2000 Earth-centered inertial position (km) at
// epoch t to WGS84 latitude/longitude (degrees) and altitude above the
// ellipsoid (km). The inertial frame is rotated to Earth-fixed by Greenwich
// Mean Sidereal Time only; precession, nutation and polar motion are below
// the resolution this service reports.
func eciToGeodetic(t time.Time, x, y, z float64) (lat, lon, alt float64) {
	theta := gmst(t)

	sinT, cosT := math.Sincos(theta)
	xe := x*cosT + y*sinT
	ye := -x*sinT + y*cosT
	ze := z

	return ecefToGeodetic(xe, ye, ze)
}

// gmst returns Greenwich Mean Sidereal Time in radians for the given UTC
// instant, using the IAU 1982 polynomial (UTC taken as UT1).
func gmst(t time.Time) float64 {
	jd := float64(t.UnixMilli())/86400000.0 + 2440587.5
	tu := (jd - 2451545.0) / 36525.0

	seconds := 67310.54841 +
		(876600.0*3600.0+8640184.812866)*tu +
		0.093104*tu*tu -
		6.2e-6*tu*tu*tu

	degrees := math.Mod(seconds, 86400.0) / 240.0
	if degrees < 0 {
		degrees += 360.0
	}
	return degrees * math.Pi / 180.0
}

// ecefToGeodetic converts Earth-fixed cartesian coordinates (km) to
// geodetic latitude/longitude/altitude, iterating on the prime vertical
// radius until the latitude converges.
func ecefToGeodetic(x, y, z float64) (latDeg, lonDeg, alt float64) {
	e2 := wgs84F * (2.0 - wgs84F)
	r := math.Hypot(x, y)

	// On the polar axis the longitude is undefined and the iteration
	// below divides by cos(lat); short-circuit with the polar radius.
	if r < 1e-9 {
		polarAlt := math.Abs(z) - wgs84A*(1.0-wgs84F)
		if z >= 0 {
			return 90.0, 0.0, polarAlt
		}
		return -90.0, 0.0, polarAlt
	}

	lon := math.Atan2(y, x)
	lat := math.Atan2(z, r)

	var n float64
	for i := 0; i < 10; i++ {
		sinLat := math.Sin(lat)
		n = wgs84A / math.Sqrt(1.0-e2*sinLat*sinLat)
		next := math.Atan2(z+n*e2*sinLat, r)
		if math.Abs(next-lat) < 1e-12 {
			lat = next
			break
		}
		lat = next
	}

	sinLat := math.Sin(lat)
	n = wgs84A / math.Sqrt(1.0-e2*sinLat*sinLat)
	alt = r/math.Cos(lat) - n

	return lat * 180.0 / math.Pi, lon * 180.0 / math.Pi, alt
}
