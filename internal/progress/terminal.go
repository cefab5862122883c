package progress

import (
	"os"

	"golang.org/x/term"
)

// ASCIIEnvVar forces ASCII symbols when set to 1.
const ASCIIEnvVar = "RECIPEDEPLOY_ASCII"

// DetectTerminalCapabilities inspects f, usually os.Stderr, and the
// NO_COLOR and RECIPEDEPLOY_ASCII environment variables.
func DetectTerminalCapabilities(f *os.File) TerminalCapabilities {
	fd := int(f.Fd())
	isTTY := term.IsTerminal(fd)

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && os.Getenv("NO_COLOR") == "",
		SupportsUnicode: isTTY && os.Getenv(ASCIIEnvVar) != "1",
		Width:           width,
	}
}

// SelectSymbols returns the symbol set the terminal can render.
func SelectSymbols(caps TerminalCapabilities) Symbols {
	if caps.SupportsUnicode {
		return Symbols{
			Checkmark:  "✓",
			Failure:    "✗",
			SpinnerSet: 14, // ⠋ ⠙ ⠹ ⠸ ⠼ ⠴ ⠦ ⠧ ⠇ ⠏
		}
	}
	return Symbols{
		Checkmark:  "[OK]",
		Failure:    "[FAIL]",
		SpinnerSet: 9, // | / - \
	}
}
