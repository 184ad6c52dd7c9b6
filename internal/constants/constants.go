// Package constants defines application version information and the
// physical constants used by the meteorological corrections.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

// MolecularWeights holds molar masses, kg/mol.
type MolecularWeights struct {
	DryAir float64
	Vapor  float64
	CO2    float64
}

// GasConstants holds specific gas constants, J/(kg K).
type GasConstants struct {
	DryAir float64
	Vapor  float64
}

// HeatCapacities holds specific heat capacities at constant pressure,
// J/(kg K).
type HeatCapacities struct {
	DryAir float64
}

// Physical is the process-wide set of physical constants. It is injected
// into the components that need it and never mutated.
type Physical struct {
	MW MolecularWeights
	Rs GasConstants
	Cp HeatCapacities
}

// DefaultPhysical returns the standard constant set.
func DefaultPhysical() Physical {
	return Physical{
		MW: MolecularWeights{
			DryAir: 0.0289645,
			Vapor:  0.0180153,
			CO2:    0.0440095,
		},
		Rs: GasConstants{
			DryAir: 287.058,
			Vapor:  461.52,
		},
		Cp: HeatCapacities{
			DryAir: 1004.67,
		},
	}
}
