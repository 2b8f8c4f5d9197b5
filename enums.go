package appfac

import (
	"fmt"
	"strings"
)

type LifetimeScope int

const (
	Transient LifetimeScope = iota // Transient: constructor runs on each resolve
	Singleton                      // Singleton: built once at Build time, shared by every resolver
	Scoped                         // Scoped: unique within a Scope, isolated between scopes
)

func (s LifetimeScope) String() string {
	switch s {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	default:
		return fmt.Sprintf("LifetimeScope(%d)", int(s))
	}
}

// Variant selects which concrete instances back the capabilities of a container.
type Variant int

const (
	Live Variant = iota // Live: real backends
	Mock                // Mock: fakes for previews and tests
)

func (v Variant) String() string {
	switch v {
	case Live:
		return "live"
	case Mock:
		return "mock"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant maps "live" or "mock" (any case) to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live", "":
		return Live, nil
	case "mock":
		return Mock, nil
	default:
		return Live, fmt.Errorf("unknown container variant %q", s)
	}
}
