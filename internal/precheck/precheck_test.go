package precheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ckan-devstaller/internal/runner"
)

const dpkgListing = `Desired=Unknown/Install/Remove/Purge/Hold
||/ Name           Version      Architecture Description
ii  curl           7.81.0       amd64        command line tool for transferring data with URL syntax
ii  docker-ce      5:27.1.1     amd64        Docker: the open-source application container engine
`

func TestListingContains(t *testing.T) {
	assert.True(t, ListingContains(dpkgListing, "docker"))
	assert.True(t, ListingContains(dpkgListing, "curl"))
	assert.False(t, ListingContains(dpkgListing, "openssh-server"))
	assert.False(t, ListingContains(dpkgListing, ""))
	assert.False(t, ListingContains("", "docker"))
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := PathExists(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = PathExists(filepath.Join(dir, "ckan-compose"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContentEquals(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	ok, err := ContentEquals(path, []byte("A=1\n"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("A=1\n"), 0o644))
	ok, err = ContentEquals(path, []byte("A=1\n"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ContentEquals(path, []byte("A=2\n"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPackageInstalledEvaluatesFreshly(t *testing.T) {
	listing := ""
	rec := &runner.Recorder{Handler: func(cmd runner.Cmd, opts runner.Options) (runner.Result, error) {
		return runner.Result{Stdout: []byte(listing)}, nil
	}}
	ec := runner.NewExecContext(rec, "")

	ok, err := PackageInstalled(context.Background(), ec, "docker")
	require.NoError(t, err)
	assert.False(t, ok)

	listing = dpkgListing
	ok, err = PackageInstalled(context.Background(), ec, "docker")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"dpkg -l", "dpkg -l"}, rec.Commands())
}
