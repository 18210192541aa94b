// Package version holds build version information for the agent.
package version

// Version is the semantic agent version reported to clients.
// It can be overridden at build time via -ldflags.
var Version = "1.4.0"

// BuildNumber is a monotonically increasing build counter reported
// alongside Version so clients can compare agents numerically.
var BuildNumber int32 = 10400
