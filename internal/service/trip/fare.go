package trip

import (
	"math"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
)

const earthRadiusKm = 6371

type Tariff struct {
	BaseFare float64
	PerKm    float64
}

// haversine returns the great circle distance between two points in kilometres.
func haversine(p1, p2 models.Location) float64 {
	lat1 := p1.Latitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (p2.Longitude - p1.Longitude) * math.Pi / 180

	a := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// fare is base + perKm * distance, rounded to cents.
func (t Tariff) fare(distanceKm float64) float64 {
	return round(t.BaseFare+t.PerKm*distanceKm, 2)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
