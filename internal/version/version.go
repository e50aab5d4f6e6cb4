// Package version holds build metadata injected via ldflags.
package version

// Service is the name reported by health checks and logs.
const Service = "topicdex"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
