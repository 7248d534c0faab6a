//go:build mage

// Package main contains Mage build targets for the consolidator.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "consolidator"
	modPath = "github.com/ginjaninja78/sheet-consolidator"
)

// dataDirs lists the working directories the default configuration expects.
var dataDirs = []string{
	"data/raw/xlsx",
	"data/raw/csv",
	"data/processed",
}

// Default target when running `mage` with no arguments.
var Default = Build

// Init creates the default data directory layout.
func Init() error {
	for _, dir := range dataDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	return nil
}

// Build compiles the CLI binary into bin/ with version information.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	ldflags := fmt.Sprintf("-X '%s/cmd.Version=%s' -X '%s/cmd.BuildDate=%s'",
		modPath, version, modPath, time.Now().Format("2006-01-02"))

	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, "."); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Run builds the binary and executes both stages with the default layout.
func Run() error {
	mg.Deps(Build, Init)
	cmd := exec.Command(filepath.Join(binDir, binName), "run")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Clean removes build output.
func Clean() error {
	return os.RemoveAll(binDir)
}
