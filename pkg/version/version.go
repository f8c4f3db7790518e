package version

// version is set at build time:
//
//	go build -ldflags "-X github.com/ottobit/simbridge/pkg/version.version=v1.2.3"
var version = "dev"

// Get returns the build version string.
func Get() string {
	return version
}
