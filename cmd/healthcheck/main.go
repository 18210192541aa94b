// Package main provides a lightweight health check utility for Docker containers.
// This tool is statically compiled and designed to work in minimal environments
// like scratch-based Docker images where standard tools (wget, curl) are unavailable.
package main

import (
	"fmt"
	"net"
	"os"
	"time"
)

const (
	defaultPort    = "6028"
	requestTimeout = 5 * time.Second
	exitSuccess    = 0
	exitFailure    = 1
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	// The gateway speaks gRPC only, so the probe is a plain TCP dial: if the
	// listener accepts, the server loop is up.
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("localhost", port), requestTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(exitFailure)
	}
	conn.Close()

	os.Exit(exitSuccess)
}
