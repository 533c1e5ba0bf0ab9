package geo

import (
	"math"
	"testing"
)

func TestHaversineKmLondonParis(t *testing.T) {
	// London (51.5074, -0.1278) to Paris (48.8566, 2.3522).
	got := HaversineKm(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(got-343.5) > 1.0 {
		t.Fatalf("London-Paris distance = %.2f km, want 343.5 +/- 1 km", got)
	}
}

func TestHaversineZeroDistance(t *testing.T) {
	if got := HaversineKm(51.5, -0.12, 51.5, -0.12); got != 0 {
		t.Fatalf("distance to self = %f, want 0", got)
	}
}

func TestHaversineMiles(t *testing.T) {
	km := HaversineKm(51.5074, -0.1278, 48.8566, 2.3522)
	miles := HaversineMiles(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(miles-km*KmToMiles) > 1e-9 {
		t.Fatalf("miles = %f, want %f", miles, km*KmToMiles)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := HaversineKm(40.7128, -74.0060, 34.0522, -118.2437)
	b := HaversineKm(34.0522, -118.2437, 40.7128, -74.0060)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("haversine not symmetric: %f vs %f", a, b)
	}
}
