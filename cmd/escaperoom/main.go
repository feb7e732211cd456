package main

import (
	"os"

	clog "github.com/charmbracelet/log"
)

func main() {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "escaperoom"})

	c, root := newCLI()
	err := root.Execute()
	c.close()
	if err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}
