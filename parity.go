package appfac

import (
	"fmt"
	"sort"
	"strings"
)

// CheckParity verifies that a and b register the same capability identifiers
// and expose each one as the same type. It is how a mock container proves it
// can stand in for the live one.
func CheckParity(a, b *Container) error {
	var problems []string
	for id, def := range a.defs {
		other, ok := b.defs[id]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: missing from %s container", id, b.variant))
			continue
		}
		if def.svcType != other.svcType {
			problems = append(problems, fmt.Sprintf("%s: %s exposes %s, %s exposes %s", id, a.variant, def.svcType, b.variant, other.svcType))
		}
	}
	for id := range b.defs {
		if _, ok := a.defs[id]; !ok {
			problems = append(problems, fmt.Sprintf("%s: missing from %s container", id, a.variant))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrParityMismatch, strings.Join(problems, "; "))
}
