package version

import (
	"runtime/debug"
	"sync"
)

const (
	versionDevel = "devel"
	product      = "checkrun"
)

// version is set via ldflags at build time.
// falls back to debug.ReadBuildInfo for go install.
var version = versionDevel

var once sync.Once

func Get() string {
	once.Do(func() {
		if version != versionDevel {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if v := info.Main.Version; v != "" && v != "("+versionDevel+")" {
			version = v
		}
	})
	return version
}

// UserAgent builds the User-Agent GitHub requires on every REST call.
// An explicit name replaces the product prefix.
func UserAgent(name string) string {
	if name == "" {
		name = product
	}
	return name + "/" + Get()
}
