// Package bits reads and writes single bits of unsigned integers, as used by frame flag bytes
// and change sets.
package bits

import (
	"golang.org/x/exp/constraints"
)

// GetBit reports if bit pos of store is set. pos 0 is the least significant bit.
func GetBit[U constraints.Unsigned](store U, pos uint8) bool {
	return store&(U(1)<<pos) != 0
}

// SetBit returns store with bit pos set to on.
func SetBit[U constraints.Unsigned](store U, pos uint8, on bool) U {
	if on {
		return store | U(1)<<pos
	}
	return store &^ (U(1) << pos)
}
