// SPDX-License-Identifier: MIT

// Command spectraldev listens to an audio input, analyzes it in real
// time and resynthesizes it from the strongest spectral peaks. Run
// with no arguments for a live session with the terminal monitor;
// see 'list', 'render' and 'version' for the one-off commands.
package main

import (
	"fmt"
	"os"

	"github.com/W47K3R9/SpectralDev/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
