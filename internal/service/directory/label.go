package directory

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
)

const (
	labelPrefix = "Unit "
	// NoUnitLabel is shown for drivers without any unit data.
	NoUnitLabel = "Unit (no data)"
)

// resolveUnit picks the unit of the linked vehicle, then the unit typed on the
// driver record, then the legacy unit field. Blank values fall through.
func resolveUnit(driver *models.User, vehicles models.VehicleMap) (string, bool) {
	if driver.AssignedVehicleID != nil {
		if v, ok := vehicles[*driver.AssignedVehicleID]; ok {
			if unit := strings.TrimSpace(v.UnitNumber); unit != "" {
				return unit, true
			}
		}
	}
	for _, field := range []*string{driver.AssignedUnit, driver.Unit} {
		if field == nil {
			continue
		}
		if unit := strings.TrimSpace(*field); unit != "" {
			return unit, true
		}
	}
	return "", false
}

func label(unit string, ok bool) string {
	if !ok {
		return NoUnitLabel
	}
	return labelPrefix + unit
}

// sortKey is the number formed by the digits of the label; labels without digits sort last.
func sortKey(label string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			return r
		}
		return -1
	}, label)

	n, err := strconv.Atoi(digits)
	if err != nil {
		return math.MaxInt
	}
	return n
}
