package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/hrom-in-space/yootils/cmd/yootils/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
