//go:build mage

// Package main provides build targets for the satchel project using Mage.
//
// Usage:
//
//	mage build          Compile satchel binary to bin/
//	mage test:all       Run all tests (unit + integration)
//	mage test:unit      Run only unit tests (exclude integration)
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install satchel to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "satchel"
	binaryDir  = "bin"
	cmdDir     = "./cmd/satchel"
)

// Build compiles the satchel binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Install installs the satchel binary to GOPATH/bin.
func Install() error {
	return sh.RunV(binGo, "install", cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Test groups test targets.
type Test mg.Namespace

// All runs all tests, unit and integration.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs only unit tests, excluding the tests/ directory.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-v",
		"./cmd/...", "./internal/...", "./pkg/...")
}

// Integration builds the binary and runs the integration suite.
func (Test) Integration() error {
	mg.Deps(Build)
	return sh.RunV(binGo, "test", "-v", "./tests/integration/...")
}
