package profile

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Profile is a link to a generation. The generation version is encoded in
// the link name, e.g. /nix/var/nix/profiles/system-42-link.
//
// Profiles are compared, ordered and considered equal ONLY by Version. Two
// profiles with the same version and different paths are equal. Do not use
// == on Profile values to deduplicate, use Equal.
type Profile struct {
	Version uint64
	Path    string
}

// PathFormatError is returned when the name of a profile path does not
// encode a version.
type PathFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PathFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid profile path %q: %s: %s", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid profile path %q: %s", e.Path, e.Reason)
}

func (e *PathFormatError) Unwrap() error {
	return e.Err
}

// FromPath builds a Profile from path. The path is kept as given.
func FromPath(path string) (Profile, error) {
	version, err := ParseVersion(path)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Version: version, Path: path}, nil
}

// ParseVersion extracts the version from the final component of path. The
// version is the second "-" separated token of the name: for
// "system-42-link" it is 42.
func ParseVersion(path string) (uint64, error) {
	name, ok := fileName(path)
	if !ok {
		return 0, &PathFormatError{Path: path, Reason: "no file name"}
	}
	if !utf8.ValidString(name) {
		return 0, &PathFormatError{Path: path, Reason: "file name is not valid UTF-8"}
	}

	tokens := strings.Split(name, "-")
	if len(tokens) < 2 {
		return 0, &PathFormatError{Path: path, Reason: fmt.Sprintf("no version in %q", name)}
	}

	version, err := strconv.ParseUint(tokens[1], 10, 64)
	if err != nil {
		return 0, &PathFormatError{Path: path, Reason: fmt.Sprintf("failed to parse version %q", tokens[1]), Err: err}
	}
	return version, nil
}

// fileName returns the last component of path, if there is one.
func fileName(path string) (string, bool) {
	trimmed := strings.TrimRight(path, string(filepath.Separator))
	for strings.HasSuffix(trimmed, string(filepath.Separator)+".") {
		trimmed = strings.TrimRight(strings.TrimSuffix(trimmed, "."), string(filepath.Separator))
	}
	if trimmed == "" || trimmed == "." {
		return "", false
	}
	name := filepath.Base(trimmed)
	if name == ".." || name == "." || name == string(filepath.Separator) {
		return "", false
	}
	return name, true
}

// Compare returns -1, 0 or +1 comparing only the versions of p and o.
func (p Profile) Compare(o Profile) int {
	return cmp.Compare(p.Version, o.Version)
}

// Equal reports whether p and o have the same version. Paths are ignored.
func (p Profile) Equal(o Profile) bool {
	return p.Version == o.Version
}

func (p Profile) Less(o Profile) bool {
	return p.Version < o.Version
}

// Sort sorts profiles by ascending version. The order of profiles sharing a
// version is unspecified.
func Sort(profiles []Profile) {
	slices.SortFunc(profiles, Profile.Compare)
}
