package buildinfo_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/mod/semver"

	"github.com/printwatch/printwatch/buildinfo"
)

func TestBuildInfo(t *testing.T) {
	t.Parallel()

	t.Run("Version", func(t *testing.T) {
		t.Parallel()
		version := buildinfo.Version()
		require.True(t, semver.IsValid(version), "version %q is not semver", version)
		// Tests are never built with a release tag.
		require.True(t, buildinfo.IsDev())
	})

	t.Run("ExternalURL", func(t *testing.T) {
		t.Parallel()
		require.True(t, strings.HasPrefix(buildinfo.ExternalURL(), buildinfo.Repository))
	})
}
