package main

import (
	"fmt"
	"os"

	"github.com/jkoskela/vocalis/cmd"
	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
