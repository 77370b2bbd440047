package ecs

import (
	"github.com/rotisserie/eris"
)

// SignatureMapper translates component kinds to signature bits. The bit index of a kind is its
// position in the kind list the mapper was built with, so the mapping never changes once built.
type SignatureMapper struct {
	kinds []string
	index map[string]uint
}

// NewSignatureMapper builds a mapper from an ordered list of kind names. The list must be non-empty,
// duplicate free and no longer than maxComponents.
func NewSignatureMapper(maxComponents int, names ...string) (SignatureMapper, error) {
	if len(names) == 0 {
		return SignatureMapper{}, eris.Wrap(ErrNoComponentKinds, "failed to build signature mapper")
	}
	if maxComponents > SignatureWidth {
		return SignatureMapper{}, eris.Wrapf(ErrTooManyComponents,
			"max components %d exceeds signature width %d", maxComponents, SignatureWidth)
	}
	if len(names) > maxComponents {
		return SignatureMapper{}, eris.Wrapf(ErrTooManyComponents,
			"%d kinds configured, max is %d", len(names), maxComponents)
	}

	m := SignatureMapper{
		kinds: make([]string, 0, len(names)),
		index: make(map[string]uint, len(names)),
	}
	for _, name := range names {
		if _, exists := m.index[name]; exists {
			return SignatureMapper{}, eris.Wrapf(ErrDuplicateComponentKind, "component %s", name)
		}
		m.index[name] = uint(len(m.kinds))
		m.kinds = append(m.kinds, name)
	}
	return m, nil
}

// Map returns the single-bit signature of a component's kind.
func (m SignatureMapper) Map(c Component) (Signature, error) {
	return m.mapName(c.Name())
}

// MapKind returns the single-bit signature of T.
func MapKind[T Component](m SignatureMapper) (Signature, error) {
	var zero T
	return m.mapName(zero.Name())
}

// MapMultiple returns the union of the components' signatures. Duplicates are harmless.
func (m SignatureMapper) MapMultiple(cs ...Component) (Signature, error) {
	var sig Signature
	for _, c := range cs {
		bit, err := m.Map(c)
		if err != nil {
			return 0, err
		}
		sig = sig.Or(bit)
	}
	return sig, nil
}

// MapNames returns the union of the signatures of the named kinds.
func (m SignatureMapper) MapNames(names ...string) (Signature, error) {
	var sig Signature
	for _, name := range names {
		bit, err := m.mapName(name)
		if err != nil {
			return 0, err
		}
		sig = sig.Or(bit)
	}
	return sig, nil
}

// Names returns the kind names of the bits set in sig, in bit order. Bits without a kind are skipped.
func (m SignatureMapper) Names(sig Signature) []string {
	names := make([]string, 0, sig.Count())
	for _, i := range sig.Bits() {
		if int(i) < len(m.kinds) {
			names = append(names, m.kinds[i])
		}
	}
	return names
}

// Kinds returns the configured kind names in bit order.
func (m SignatureMapper) Kinds() []string {
	out := make([]string, len(m.kinds))
	copy(out, m.kinds)
	return out
}

// Len returns the number of configured kinds.
func (m SignatureMapper) Len() int {
	return len(m.kinds)
}

func (m SignatureMapper) mapName(name string) (Signature, error) {
	i, ok := m.index[name]
	if !ok {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %s", name)
	}
	return Bit(i), nil
}
