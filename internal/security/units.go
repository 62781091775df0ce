package security

import (
	"fmt"
	"math"
)

// BaseUnitsPerDisplayUnit is the fixed ratio between lamports and SOL.
const BaseUnitsPerDisplayUnit = 1e9

// ToDisplayUnits converts base units to a display string with 4 decimal places.
func ToDisplayUnits(baseUnits uint64) string {
	return fmt.Sprintf("%.4f", float64(baseUnits)/BaseUnitsPerDisplayUnit)
}

// ToBaseUnits converts display units to base units, flooring any fraction.
func ToBaseUnits(displayUnits float64) int64 {
	return int64(math.Floor(displayUnits * BaseUnitsPerDisplayUnit))
}
