package process

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Version is a parsed semantic version directory name.
type Version struct {
	Major, Minor, Patch int
}

// ParseVersion parses a "major.minor.patch" string. Directory names
// that are not plain three-part versions are rejected.
func ParseVersion(s string) (Version, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, false
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, true
}

// Less reports whether v orders before other. Comparison is numeric per
// component, never lexicographic, so 10.0.0 sorts after 9.9.9.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// String returns the directory form of the version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// TargetTriple returns the engine distribution triple for the current
// OS and architecture.
func TargetTriple() string {
	arch := "x86_64"
	switch runtime.GOARCH {
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	}

	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-gnu"
	default:
		return arch + "-unknown-linux-musl"
	}
}

// executableName returns the engine binary name for the current OS.
func executableName() string {
	if runtime.GOOS == "windows" {
		return "TabNine.exe"
	}
	return "TabNine"
}

// LatestVersion scans the install root for version directories and
// returns the highest installed version.
func LatestVersion(root string) (Version, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return Version{}, fmt.Errorf("%w: reading %s: %v", ErrNoBinary, root, err)
	}

	var best Version
	found := false
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, ok := ParseVersion(e.Name())
		if !ok {
			continue
		}
		if !found || best.Less(v) {
			best = v
			found = true
		}
	}

	if !found {
		return Version{}, fmt.Errorf("%w: no version directories under %s", ErrNoBinary, root)
	}
	return best, nil
}

// ResolveBinary locates the newest installed engine executable under
// root, laid out as <root>/<version>/<target-triple>/<executable>.
func ResolveBinary(root string) (string, error) {
	v, err := LatestVersion(root)
	if err != nil {
		return "", err
	}

	path := filepath.Join(root, v.String(), TargetTriple(), executableName())
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNoBinary, path, err)
	}
	return path, nil
}
