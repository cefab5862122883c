// recipedeploy - deployment recipe recommendation and option-settings engine
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/recipedeploy

package main

import (
	"os"

	"github.com/ariel-frischer/recipedeploy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
