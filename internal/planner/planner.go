// Package planner answers trip planning requests with a placeholder
// heuristic: stops are matched by name substring and the options
// carry canned durations and distances. It is deliberately not a
// shortest-path search; replacing it is a product decision, not a
// refactor, so the behavior is kept as documented.
package planner

import (
	"errors"
	"fmt"

	"unibus/internal/directory"
	"unibus/internal/domain"
)

// ErrNoStops means no stop matched one of the endpoints
var ErrNoStops = errors.New("no stops found near the specified locations")

const nearbyStopLimit = 3

type Request struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type Option struct {
	DurationMinutes    int      `json:"duration_minutes"`
	Transfers          int      `json:"transfers"`
	Buses              []string `json:"buses"`
	WalkingTimeMinutes int      `json:"walking_time_minutes"`
	Details            string   `json:"details"`
	TotalDistanceKm    float64  `json:"total_distance_km"`
}

type Response struct {
	Options     []Option `json:"options"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
}

type Planner struct {
	directory *directory.Directory
}

func New(d *directory.Directory) *Planner {
	return &Planner{directory: d}
}

// Plan builds up to three canned options between the endpoints. It
// fails with ErrNoStops when either endpoint matches no stop.
func (p *Planner) Plan(req Request) (Response, error) {
	originStops := p.directory.SearchStops(req.Origin, nearbyStopLimit)
	destinationStops := p.directory.SearchStops(req.Destination, nearbyStopLimit)

	if len(originStops) == 0 || len(destinationStops) == 0 {
		return Response{}, ErrNoStops
	}

	var options []Option

	if vehicle, ok := p.directRoute(originStops[0], destinationStops[0]); ok {
		options = append(options, Option{
			DurationMinutes:    30,
			Transfers:          0,
			Buses:              []string{string(vehicle)},
			WalkingTimeMinutes: 5,
			Details:            fmt.Sprintf("Take %s from %s to %s", vehicle, req.Origin, req.Destination),
			TotalDistanceKm:    10.5,
		})
	}

	if transfer, ok := p.transferRoute(originStops[0], destinationStops[0]); ok {
		options = append(options, transfer)
	}

	if len(options) < 2 {
		options = append(options, Option{
			DurationMinutes:    55,
			Transfers:          1,
			Buses:              []string{"Alternative Bus"},
			WalkingTimeMinutes: 10,
			Details:            "Alternative route with longer travel time",
			TotalDistanceKm:    15.2,
		})
	}

	return Response{
		Options:     options,
		Origin:      req.Origin,
		Destination: req.Destination,
	}, nil
}

// directRoute finds a route serving both stops that has a vehicle on
// duty right now.
func (p *Planner) directRoute(origin, destination domain.Stop) (domain.VehicleID, bool) {
	serving := make(map[string]struct{})
	for _, routeID := range p.directory.RoutesServing(origin.ID) {
		serving[routeID] = struct{}{}
	}
	for _, routeID := range p.directory.RoutesServing(destination.ID) {
		if _, ok := serving[routeID]; !ok {
			continue
		}
		if vehicle, ok := p.directory.ActiveVehicleOnRoute(routeID); ok {
			return vehicle, true
		}
	}
	return "", false
}

// transferRoute is the canned one-transfer option
func (p *Planner) transferRoute(_, _ domain.Stop) (Option, bool) {
	return Option{
		DurationMinutes:    45,
		Transfers:          1,
		Buses:              []string{"Bus A", "Bus B"},
		WalkingTimeMinutes: 8,
		Details:            "Take Bus A, transfer at Central Station, then Bus B",
		TotalDistanceKm:    12.3,
	}, true
}
