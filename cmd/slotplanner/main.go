// Command slotplanner assigns Kavach radio frequencies and TDMA slots to
// stationary units and manages the approved-station registry.
package main

import (
	"fmt"
	"os"

	plannererrors "github.com/signalsfoundry/kavach-slot-planner/internal/errors"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(plannererrors.GetExitCode(err))
	}
}
