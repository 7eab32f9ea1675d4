// Package cmd contains the CLI entry points.
//
// Design: all application logic lives here, leaving main.go as a minimal
// entry point, following the pattern used by standard Go CLI tools.
package cmd

import (
	"fmt"
	"os"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.0.1"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point for the coachly application.
// Handles --version and --help before full initialization so they work
// even when the config is invalid.
func Execute() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			printVersionInfo()
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "serve":
			return runServe()
		default:
			printHelp()
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}
	return runServe()
}

func printVersionInfo() {
	fmt.Printf("coachly %s (built %s, commit %s)\n", AppVersion, BuildTime, GitCommit)
}

func printHelp() {
	fmt.Print(`coachly - AI fitness coaching chat service

Usage:
  coachly [command]

Commands:
  serve       Start the HTTP API server (default)
  version     Print version information
  help        Print this help

Environment:
  GEMINI_API_KEY        Gemini API key (required)
  COACHLY_ADDR          Listen address (default 127.0.0.1:8080)
  COACHLY_MODEL_NAME    Model name (default gemini-2.5-flash)
  COACHLY_LOG_LEVEL     Log level: debug|info|warn|error

Configuration file: ~/.coachly/config.yaml
`)
}
