// ABOUTME: Tests for quote pricing formulas
// ABOUTME: Covers thresholds, floors, rounding, and input coercion
package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrivewayPrice(t *testing.T) {
	tests := []struct {
		name     string
		sqft     float64
		expected float64
	}{
		{"zero", 0, 0},
		{"negative", -100, 0},
		{"small flat minimum", 400, 250},
		{"just under minimum area", 506, 250},
		{"minimum area uses curve", 507, 250},
		{"mid range curve", 1000, 372},
		{"upper curve", 2500, 635},
		{"curve hits floor", 8000, 1280},
		{"linear regime", 9000, 1440},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DrivewayPrice(tt.sqft))
		})
	}
}

func TestCrackRepairPrice(t *testing.T) {
	tests := []struct {
		feet     float64
		expected float64
	}{
		{0, 0},
		{50, 100},
		{100, 200},
		{101, 201.28},
		{200, 312.21},
		{500, 750},
		{1000, 1500},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, CrackRepairPrice(tt.feet), 0.001, "feet=%v", tt.feet)
	}
}

func TestAsphaltRepairPrice(t *testing.T) {
	assert.Equal(t, 0.0, AsphaltRepairPrice(0))
	assert.Equal(t, 100.0, AsphaltRepairPrice(2))
	assert.Equal(t, 100.0, AsphaltRepairPrice(5))
	assert.Equal(t, 400.0, AsphaltRepairPrice(20))
}

func TestCalculateAll(t *testing.T) {
	b := CalculateAll(1000, 200, 10)

	assert.Equal(t, 500.0, b.DrivewayUndiscounted)
	assert.Equal(t, 372.0, b.DrivewayQuoted)
	assert.Equal(t, 500.0, b.CrackUndiscounted)
	assert.Equal(t, 312.0, b.CrackQuoted)
	assert.Equal(t, 200.0, b.Asphalt)
	assert.Equal(t, 1200.0, b.TotalUndiscounted)
	assert.Equal(t, 884.0, b.TotalQuoted)
	assert.Equal(t, 316.0, b.TotalDiscount)
}

func TestCalculateAllEmpty(t *testing.T) {
	b := CalculateAll(0, 0, 0)
	assert.Zero(t, b.TotalQuoted)
	assert.Zero(t, b.TotalUndiscounted)
	assert.Zero(t, b.TotalDiscount)
}

func TestCoercion(t *testing.T) {
	assert.Equal(t, 0.0, DrivewayPrice(math.NaN()))
	assert.Equal(t, 0.0, CrackRepairPrice(math.Inf(1)))
	assert.Equal(t, 0.0, DrivewayReference(-5))

	assert.Equal(t, 12.5, Parse(" 12.5 "))
	assert.Equal(t, 0.0, Parse("twelve"))
	assert.Equal(t, 0.0, Parse(""))
	assert.Equal(t, 0.0, Parse("-3"))
}
