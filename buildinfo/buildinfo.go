// Package buildinfo reports the version printwatch was built from.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
)

// Repository is the source of printwatch releases.
const Repository = "https://github.com/printwatch/printwatch"

var (
	readSettings sync.Once
	settings     map[string]string

	version     string
	readVersion sync.Once

	// Injected with ldflags at build, without the leading "v".
	tag string
)

// Version returns the semantic version of the build. Development builds
// report v0.0.0-devel with the short commit appended when known.
func Version() string {
	readVersion.Do(func() {
		revision, ok := setting("vcs.revision")
		suffix := ""
		if ok && len(revision) >= 7 {
			suffix = "+" + revision[:7]
		}
		if tag == "" {
			version = "v0.0.0-devel" + suffix
			return
		}
		v := "v" + strings.TrimPrefix(tag, "v")
		if semver.Build(v) == "" {
			v += suffix
		}
		version = v
	})
	return version
}

// IsDev returns true when this is a development build.
func IsDev() bool {
	return strings.HasPrefix(Version(), "v0.0.0-devel")
}

// ExternalURL links to the release for tagged builds and to the commit
// otherwise.
func ExternalURL() string {
	if !IsDev() {
		return fmt.Sprintf("%s/releases/tag/%s", Repository, semver.Canonical(Version()))
	}
	revision, ok := setting("vcs.revision")
	if !ok {
		return Repository
	}
	return fmt.Sprintf("%s/commit/%s", Repository, revision)
}

func setting(key string) (string, bool) {
	readSettings.Do(func() {
		settings = map[string]string{}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}
	})
	v, ok := settings[key]
	return v, ok
}
