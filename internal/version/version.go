// Package version holds build information injected with ldflags:
//
//	go build -ldflags "-X github.com/jmgilman/shelf/internal/version.Version=v0.3.0 \
//	                   -X github.com/jmgilman/shelf/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/jmgilman/shelf/internal/version.Date=$(date -u +%Y-%m-%d)"
package version

var (
	// Version is the release version.
	Version = "dev"

	// Commit is the short commit hash.
	Commit = "none"

	// Date is the build date.
	Date = "unknown"
)
