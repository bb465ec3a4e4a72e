package samplelog

import (
	"fmt"

	"unibus/internal/domain"
)

const keyVehicles = "vehicles"

func keyTrack(id domain.VehicleID) string {
	return fmt.Sprintf("track:%s", id)
}
