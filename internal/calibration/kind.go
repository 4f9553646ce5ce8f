package calibration

import (
	"fmt"
	"strings"
)

// Kind names a reference patch.
type Kind int

const (
	White Kind = iota
	Gray
	Black

	numKinds = iota
)

// Kinds returns every reference kind in storage order.
func Kinds() []Kind {
	return []Kind{White, Gray, Black}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// Target returns the linear reflectance a patch of this kind should read as.
func (k Kind) Target() float64 {
	switch k {
	case White:
		return 1.0
	case Gray:
		return 0.18
	case Black:
		return 0.0
	}
	panic(fmt.Sprintf("calibration: unknown kind %d", int(k)))
}

func (k Kind) String() string {
	switch k {
	case White:
		return "white"
	case Gray:
		return "gray"
	case Black:
		return "black"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses "white", "gray" (or "grey") and "black", ignoring case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white":
		return White, nil
	case "gray", "grey":
		return Gray, nil
	case "black":
		return Black, nil
	}
	return 0, fmt.Errorf("unknown calibration kind %q (want white, gray or black)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown calibration kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
