//go:build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "unisync"

// Default target to run when none is specified
var Default = Build

// Build builds the binary
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", binary, "./cmd/unisync")
}

// Test runs the unit tests
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "-race", "-coverprofile=coverage.out", "./...")
}

// Integration runs the unit tests plus the integration-tagged end-to-end tests
func Integration() error {
	fmt.Println("Running integration tests...")
	return run(context.Background(), "go", "test", "-race", "-tags=integration", "./internal/app/...")
}

// Lint lints the codebase
func Lint() error {
	fmt.Println("Linting...")
	return run(context.Background(), "golangci-lint", "run", "./...")
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning...")

	for _, artifact := range []string{binary, "coverage.out", "coverage.html"} {
		if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// Install installs the binary
func Install() error {
	fmt.Println("Installing...")
	return sh.Run("go", "install", "./cmd/unisync")
}

// Fmt formats the code
func Fmt() error {
	fmt.Println("Formatting code...")
	return sh.Run("gofmt", "-s", "-w", ".")
}

// Check runs all checks (fmt, lint, test, integration)
func Check() error {
	mg.SerialDeps(Fmt, Lint, Test, Integration)
	return nil
}

// Coverage generates an HTML coverage report
func Coverage() error {
	mg.Deps(Test)

	fmt.Println("Generating coverage report...")

	return sh.Run("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Helper function to run commands with context
func run(c context.Context, command string, arg ...string) error {
	cmd := exec.CommandContext(c, command, arg...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
