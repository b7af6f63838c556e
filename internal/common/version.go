package common

// Build identification, injected at build time:
//
//	go build -ldflags "-X .../internal/common.Version=v1.2.0 ..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the build version.
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp.
func GetBuild() string {
	return Build
}

// GetGitCommit returns the source commit hash.
func GetGitCommit() string {
	return GitCommit
}
