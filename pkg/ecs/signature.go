package ecs

import (
	"fmt"
	"math/bits"
)

// SignatureWidth is the number of distinct component kinds a Signature can represent.
const SignatureWidth = 64

// Signature is a set of component kinds encoded as a bitmask. Bit i is set when the entity (or the
// system requirement) involves the component kind mapped to bit i. The zero value means no
// components.
type Signature uint64

// Bit returns the single-bit signature for bit index i.
func Bit(i uint) Signature {
	if i >= SignatureWidth {
		panic(fmt.Sprintf("signature bit %d exceeds width %d", i, SignatureWidth))
	}
	return Signature(1) << i
}

// Test reports whether s contains every bit of other, i.e. s is a superset of other.
func (s Signature) Test(other Signature) bool {
	return s&other == other
}

// Set returns s with every bit of other set.
func (s Signature) Set(other Signature) Signature { return s | other }

// Reset returns s with every bit of other cleared.
func (s Signature) Reset(other Signature) Signature { return s &^ other }

// Flip returns s with every bit of other toggled.
func (s Signature) Flip(other Signature) Signature { return s ^ other }

// Or returns the union of s and other.
func (s Signature) Or(other Signature) Signature { return s | other }

// And returns the intersection of s and other.
func (s Signature) And(other Signature) Signature { return s & other }

// Xor returns the symmetric difference of s and other.
func (s Signature) Xor(other Signature) Signature { return s ^ other }

// Not returns the complement of s over the full signature width.
func (s Signature) Not() Signature { return ^s }

// IsEmpty reports whether no bit is set.
func (s Signature) IsEmpty() bool { return s == 0 }

// Count returns the number of component kinds in the signature.
func (s Signature) Count() int { return bits.OnesCount64(uint64(s)) }

// IsComposite reports whether the signature involves more than one component kind.
func (s Signature) IsComposite() bool { return s.Count() > 1 }

// Decompose splits s into its single-bit signatures, lowest bit first.
func (s Signature) Decompose() []Signature {
	out := make([]Signature, 0, s.Count())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		out = append(out, Signature(1)<<bits.TrailingZeros64(rest))
	}
	return out
}

// Bits returns the indices of the set bits, lowest first.
func (s Signature) Bits() []uint {
	out := make([]uint, 0, s.Count())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		out = append(out, uint(bits.TrailingZeros64(rest)))
	}
	return out
}

// String renders the signature as a binary string, most significant bit first.
func (s Signature) String() string {
	return fmt.Sprintf("%b", uint64(s))
}
