package tracker

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"unibus/internal/domain"
	"unibus/internal/geo"
)

// defaultSpeedKmh stands in when a vehicle has no usable speed trail
const defaultSpeedKmh = 40.0

// StopSource resolves stop coordinates
type StopSource interface {
	Stop(id string) (domain.Stop, bool)
}

// HistorySource supplies the recent track of a vehicle
type HistorySource interface {
	History(id domain.VehicleID, since time.Time) []domain.PositionSample
}

// Estimator fills in the minutes-to-next-stop when the driver app
// reports a next stop without its own estimate. Distance is the
// great-circle distance to the stop; speed is the harmonic mean of
// the recent speed trail, which weights slow segments the way travel
// time does.
type Estimator struct {
	stops    StopSource
	history  HistorySource
	lookback time.Duration
}

func NewEstimator(stops StopSource, history HistorySource, lookback time.Duration) *Estimator {
	if lookback <= 0 {
		lookback = 15 * time.Minute
	}
	return &Estimator{stops: stops, history: history, lookback: lookback}
}

// Estimate returns the ETA in whole minutes, rounded up. It reports
// false when the next stop is unknown.
func (e *Estimator) Estimate(s domain.PositionSample) (int, bool) {
	stop, ok := e.stops.Stop(s.NextStopID)
	if !ok {
		return 0, false
	}

	distanceKm := geo.DistanceKm(s.Latitude, s.Longitude, stop.Latitude, stop.Longitude)

	speeds := e.recentSpeeds(s)
	speedKmh := defaultSpeedKmh
	if len(speeds) > 0 {
		if mean := stat.HarmonicMean(speeds, nil); mean >= 1 {
			speedKmh = mean
		}
	}

	minutes := int(math.Ceil(distanceKm / speedKmh * 60))
	return minutes, true
}

func (e *Estimator) recentSpeeds(s domain.PositionSample) []float64 {
	var speeds []float64
	if s.SpeedKmh != nil && *s.SpeedKmh > 0 {
		speeds = append(speeds, *s.SpeedKmh)
	}
	for _, past := range e.history.History(s.VehicleID, time.Now().Add(-e.lookback)) {
		if past.SpeedKmh != nil && *past.SpeedKmh > 0 {
			speeds = append(speeds, *past.SpeedKmh)
		}
	}
	return speeds
}
