package progress

import (
	"fmt"

	"github.com/fatih/color"
)

func formatCounter(number, total int) string {
	return fmt.Sprintf("[%d/%d]", number, total)
}

func buildStepMessage(step StepInfo) string {
	return fmt.Sprintf("%s %s", formatCounter(step.Number, step.Total), step.Name)
}

func checkmark(symbols Symbols, supportsColor bool) string {
	if !supportsColor {
		return symbols.Checkmark
	}
	return colorize(color.FgGreen, symbols.Checkmark)
}

func failureMark(symbols Symbols, supportsColor bool) string {
	if !supportsColor {
		return symbols.Failure
	}
	return colorize(color.FgRed, symbols.Failure)
}

// colorize ignores color.NoColor, which is decided from stdout, because
// capabilities were already detected for the display's own stream.
func colorize(attr color.Attribute, s string) string {
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
