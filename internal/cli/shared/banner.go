package shared

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Logo is the ASCII art logo for recipedeploy.
var Logo = []string{
	"█▀█ █▀▀ █▀▀ █ █▀█ █▀▀ █▀▄ █▀▀ █▀█ █   █▀█ █▄█",
	"█▀▄ ██▄ █▄▄ █ █▀▀ ██▄ █▄▀ ██▄ █▀▀ █▄▄ █▄█  █ ",
}

// Tagline is the project tagline.
const Tagline = "Deployment recipe recommendations and option settings"

// PrintBanner prints the colored ASCII logo and tagline.
func PrintBanner(out io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(out)
	for _, line := range Logo {
		fmt.Fprintln(out, cyan(line))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, dim(Tagline))
	fmt.Fprintln(out)
}

// Colors provides reusable color functions for CLI output.
type Colors struct {
	Cyan   func(a ...interface{}) string
	Green  func(a ...interface{}) string
	Yellow func(a ...interface{}) string
	Red    func(a ...interface{}) string
	Dim    func(a ...interface{}) string
	Bold   func(a ...interface{}) string
}

// NewColors creates a new Colors instance with standard terminal colors.
func NewColors() *Colors {
	return &Colors{
		Cyan:   color.New(color.FgCyan, color.Bold).SprintFunc(),
		Green:  color.New(color.FgGreen).SprintFunc(),
		Yellow: color.New(color.FgYellow).SprintFunc(),
		Red:    color.New(color.FgRed).SprintFunc(),
		Dim:    color.New(color.Faint).SprintFunc(),
		Bold:   color.New(color.Bold).SprintFunc(),
	}
}
