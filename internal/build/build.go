// Package build provides the build information injected at link time.
package build

var (
	// Version is the release version of the binary, set with -ldflags.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// Date is the build date in RFC3339.
	Date = "unknown"

	// ProjectName is the name used in logs and metric namespaces.
	ProjectName = "iacexport"
)
