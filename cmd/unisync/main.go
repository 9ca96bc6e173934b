// Package main is the entry point for the unisync application.
package main

import (
	"fmt"
	"os"

	"github.com/joe/unisync/internal/app"
	"github.com/joe/unisync/internal/config"
	"github.com/joe/unisync/internal/logging"
	"github.com/joe/unisync/internal/tui"
	unierrors "github.com/joe/unisync/pkg/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse configuration
	cfg, err := config.ParseFlags()
	if err != nil {
		return fail(err)
	}

	err = logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Writer:     os.Stderr,
		Components: cfg.LogComponents,
		Timestamps: cfg.Verbosity > 2,
	})
	if err != nil {
		return fail(err)
	}

	application, err := app.New(cfg, os.Stdin, os.Stdout)
	if err != nil {
		return fail(err)
	}

	err = application.Run()

	if closeErr := application.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fail(err)
	}

	return 0
}

// fail prints err with suggestions on stderr and returns the exit code.
func fail(err error) int {
	enriched := unierrors.NewEnricher().Enrich(err, "")

	fmt.Fprintln(os.Stderr, tui.RenderError("Error: "+err.Error()))

	if suggestions := unierrors.FormatSuggestions(enriched); suggestions != "" {
		fmt.Fprintln(os.Stderr, suggestions)
	}

	return 1
}
