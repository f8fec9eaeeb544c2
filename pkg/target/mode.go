// Package target names the machine modes this backend supports. Real mode
// and system-management mode are rejected at entry; ARM is accepted by the
// CLI surface for flag parity but rejected with InvalidMode before any
// pass runs.
package target

import "github.com/raymyers/mplc-backend/pkg/diag"

// Mode is one of the two supported x86 execution modes.
type Mode int

const (
	ModeProtected Mode = iota // 32-bit
	ModeLong                  // 64-bit
)

func (m Mode) String() string {
	if m == ModeLong {
		return "long"
	}
	return "protected"
}

// PointerSize is the machine word size in bytes: 4 in protected mode, 8 in
// long mode. This is W in spec.md §4.5.2's activation-record formulas.
func (m Mode) PointerSize() uint64 {
	if m == ModeLong {
		return 8
	}
	return 4
}

// ParseMode maps a CLI flag name to a Mode, or reports InvalidMode.
func ParseMode(flag string) (Mode, error) {
	switch flag {
	case "x86-protected":
		return ModeProtected, nil
	case "x86-long":
		return ModeLong, nil
	case "arm-v7", "arm-v8":
		return 0, diag.New(diag.KindInvalidMode, "target", flag, "ARM targets are not implemented by this backend")
	default:
		return 0, diag.New(diag.KindInvalidMode, "target", flag, "unrecognised target mode")
	}
}
