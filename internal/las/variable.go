package las

import "fmt"

// Variable selects which point field becomes the rasterized value.
type Variable int

const (
	VarX Variable = iota
	VarY
	VarZ
	VarIntensity
)

// ParseVariable maps a CLI flag value to a Variable.
func ParseVariable(s string) (Variable, error) {
	switch s {
	case "x":
		return VarX, nil
	case "y":
		return VarY, nil
	case "z":
		return VarZ, nil
	case "intensity":
		return VarIntensity, nil
	default:
		return 0, fmt.Errorf("unknown variable %q (want x, y, z or intensity)", s)
	}
}

func (v Variable) String() string {
	switch v {
	case VarX:
		return "x"
	case VarY:
		return "y"
	case VarZ:
		return "z"
	case VarIntensity:
		return "intensity"
	default:
		return fmt.Sprintf("Variable(%d)", int(v))
	}
}

// Of extracts the selected field from p.
func (v Variable) Of(p Point) float64 {
	switch v {
	case VarX:
		return p.X
	case VarY:
		return p.Y
	case VarZ:
		return p.Z
	case VarIntensity:
		return float64(p.Intensity)
	default:
		return p.Z
	}
}
