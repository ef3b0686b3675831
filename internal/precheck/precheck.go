// Package precheck holds the idempotency guards evaluated before an
// installation action. The predicates are pure; the gathering helpers run
// fresh on every invocation and are never cached across runs.
//
// A guard may report a false negative (a tool that is present but not
// detected). The action then simply runs again, which is accepted.
package precheck

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"ckan-devstaller/internal/runner"
)

// ListingContains reports whether any line of listing contains token.
// It mirrors `<listing> | grep token`.
func ListingContains(listing, token string) bool {
	if token == "" {
		return false
	}
	scanner := bufio.NewScanner(strings.NewReader(listing))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), token) {
			return true
		}
	}
	return false
}

// PathExists reports whether path exists. Errors other than "not found" are returned.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ContentEquals reports whether the file at path holds exactly want.
// A missing file is simply not equal.
func ContentEquals(path string, want []byte) (bool, error) {
	got, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(got) == string(want), nil
}

// InstalledPackages returns the `dpkg -l` listing of the host.
func InstalledPackages(ctx context.Context, ec runner.ExecContext) (string, error) {
	res, err := ec.RunWith(ctx, runner.Command("dpkg", "-l"), runner.Options{Capture: true})
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// PackageInstalled gathers the package listing and looks for token in it.
func PackageInstalled(ctx context.Context, ec runner.ExecContext, token string) (bool, error) {
	listing, err := InstalledPackages(ctx, ec)
	if err != nil {
		return false, err
	}
	return ListingContains(listing, token), nil
}
