// ABOUTME: Quote pricing for driveway sealing, crack repair, and asphalt patching
// ABOUTME: Pure functions; bad or missing measurements count as zero
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/harperreed/workly/models"
)

// Driveway pricing constants.
const (
	drivewayMinimum       = 250.0
	drivewayMinimumArea   = 507.0
	drivewayLinearArea    = 8000.0
	drivewayFloorRate     = 0.16
	drivewayCoefficient   = 6.58
	drivewayExponent      = -0.416
	drivewayReferenceRate = 0.5
)

// Crack repair pricing constants.
const (
	crackFlatRate      = 2.0
	crackFloorRate     = 1.5
	crackAnchorLength  = 100.0
	crackExponent      = 0.3575
	crackReferenceRate = 2.5
)

// Asphalt repair pricing constants.
const (
	asphaltRate    = 20.0
	asphaltMinimum = 100.0
)

// Coerce maps NaN, infinities, and negative measurements to zero.
func Coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Parse reads a measurement typed by a user. Anything unparseable is zero.
func Parse(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return Coerce(v)
}

// DrivewayPrice returns the quoted sealing price in whole dollars.
// Under 507 sqft is a flat minimum, above 8000 sqft is linear at the floor
// rate, and in between the per-sqft rate decays as a power law.
func DrivewayPrice(sqft float64) float64 {
	area := Coerce(sqft)
	switch {
	case area == 0:
		return 0
	case area < drivewayMinimumArea:
		return drivewayMinimum
	case area > drivewayLinearArea:
		return math.Round(area * drivewayFloorRate)
	}
	rate := math.Max(drivewayCoefficient*math.Pow(area, drivewayExponent), drivewayFloorRate)
	return math.Round(rate * area)
}

// DrivewayReference is the undiscounted figure shown next to the quote.
func DrivewayReference(sqft float64) float64 {
	return Coerce(sqft) * drivewayReferenceRate
}

// CrackRepairPrice returns the crack fill price rounded to the cent.
func CrackRepairPrice(feet float64) float64 {
	length := Coerce(feet)
	if length == 0 {
		return 0
	}
	rate := crackFlatRate
	if length > crackAnchorLength {
		rate = math.Max(crackFloorRate, crackFlatRate*math.Pow(crackAnchorLength/length, crackExponent))
	}
	return math.Round(rate*length*100) / 100
}

// CrackReference is the undiscounted crack repair figure.
func CrackReference(feet float64) float64 {
	return Coerce(feet) * crackReferenceRate
}

// AsphaltRepairPrice charges a flat rate per sqft with a minimum.
func AsphaltRepairPrice(sqft float64) float64 {
	area := Coerce(sqft)
	if area == 0 {
		return 0
	}
	return math.Max(asphaltMinimum, area*asphaltRate)
}

// CalculateAll prices all three services. Callers re-run it whenever any
// measurement changes.
func CalculateAll(sqft, crackFeet, asphaltSqft float64) models.PriceBreakdown {
	b := models.PriceBreakdown{
		DrivewayUndiscounted: DrivewayReference(sqft),
		DrivewayQuoted:       DrivewayPrice(sqft),
		CrackUndiscounted:    CrackReference(crackFeet),
		CrackQuoted:          math.Round(CrackRepairPrice(crackFeet)),
		Asphalt:              AsphaltRepairPrice(asphaltSqft),
	}
	b.TotalUndiscounted = b.DrivewayUndiscounted + b.CrackUndiscounted + b.Asphalt
	b.TotalQuoted = b.DrivewayQuoted + b.CrackQuoted + b.Asphalt
	b.TotalDiscount = b.TotalUndiscounted - b.TotalQuoted
	return b
}
