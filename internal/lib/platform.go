package lib

// Platform is a docker build target. Cloud Run only executes linux/amd64
// images, arm64 is accepted for images pushed to other runtimes.
type Platform string

const (
	PlatformLinuxAmd64 Platform = "linux/amd64"
	PlatformLinuxArm64 Platform = "linux/arm64"
	// PlatformNone leaves the target to docker, no --platform flag is passed.
	PlatformNone Platform = "none"
)
