package main

import (
	"fmt"
	"os"

	"github.com/bootnotify/internal/boot"
	"github.com/bootnotify/internal/cli/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		if !boot.Silent(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(boot.ExitCode(err))
	}
}
