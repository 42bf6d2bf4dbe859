// Package brew knows how to find the Homebrew executable and which arguments
// each operation passes to it.
package brew

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/teamcutter/linebrew/internal/domain"
)

var ErrNotFound = errors.New("brew executable not found, install Homebrew first (https://brew.sh)")

var ErrInvalidTarget = errors.New("invalid target")

// Well-known install prefixes checked after PATH.
var searchPaths = []string{
	"/home/linuxbrew/.linuxbrew/bin/brew",
	"/opt/homebrew/bin/brew",
	"/usr/local/bin/brew",
}

// Locate returns the brew executable: the configured path when given, then
// PATH, then the well-known prefixes.
func Locate(configured string) (string, error) {
	if configured != "" {
		if isExecutable(configured) {
			return configured, nil
		}
		return "", fmt.Errorf("configured brew_path %s: %w", configured, ErrNotFound)
	}

	if p, err := exec.LookPath("brew"); err == nil {
		return p, nil
	}

	for _, p := range searchPaths {
		if isExecutable(p) {
			return p, nil
		}
	}

	return "", ErrNotFound
}

// Env returns environ with the directory holding brewPath prepended to PATH
// when it is not already listed.
func Env(environ []string, brewPath string) []string {
	binDir := filepath.Dir(brewPath)
	env := make([]string, 0, len(environ)+1)
	found := false

	for _, kv := range environ {
		if value, ok := strings.CutPrefix(kv, "PATH="); ok {
			found = true
			if !containsDir(value, binDir) {
				if value == "" {
					kv = "PATH=" + binDir
				} else {
					kv = "PATH=" + binDir + string(os.PathListSeparator) + value
				}
			}
		}
		env = append(env, kv)
	}

	if !found {
		env = append(env, "PATH="+binDir)
	}
	return env
}

// Args returns the argument list for a mutating or maintenance class.
func Args(class domain.CommandClass, target string) ([]string, error) {
	if strings.HasPrefix(target, "-") {
		return nil, fmt.Errorf("%w: %q looks like a flag", ErrInvalidTarget, target)
	}

	switch class {
	case domain.ClassInstall, domain.ClassUninstall, domain.ClassPin,
		domain.ClassUnpin, domain.ClassTap, domain.ClassUntap:
		if target == "" {
			return nil, fmt.Errorf("%w: %s needs a name", ErrInvalidTarget, class)
		}
		return []string{class.String(), target}, nil
	case domain.ClassUpgrade:
		if target == "" {
			return []string{"upgrade"}, nil
		}
		return []string{"upgrade", target}, nil
	case domain.ClassUpdate, domain.ClassCleanup, domain.ClassDoctor:
		if target != "" {
			return nil, fmt.Errorf("%w: %s takes no target", ErrInvalidTarget, class)
		}
		return []string{class.String()}, nil
	default:
		return nil, fmt.Errorf("%w: no arguments for class %s", ErrInvalidTarget, class)
	}
}

// ListArgs returns the read-only listing invocation for a category.
func ListArgs(category domain.Category) ([]string, error) {
	switch category {
	case domain.CategoryInstalled:
		return []string{"info", "--json=v2", "--installed"}, nil
	case domain.CategoryOutdated:
		return []string{"outdated", "--json=v2"}, nil
	case domain.CategoryAll:
		return []string{"formulae"}, nil
	case domain.CategoryLeaves:
		return []string{"leaves"}, nil
	case domain.CategoryPinned:
		return []string{"list", "--pinned", "--versions"}, nil
	case domain.CategoryTaps:
		return []string{"tap"}, nil
	default:
		return nil, fmt.Errorf("no listing for %s", category)
	}
}

// InfoArgs returns the detail invocation for one formula.
func InfoArgs(name string) ([]string, error) {
	if name == "" || strings.HasPrefix(name, "-") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, name)
	}
	return []string{"info", "--json=v2", name}, nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode()&0111 != 0
}

func containsDir(pathList, dir string) bool {
	for _, p := range filepath.SplitList(pathList) {
		if p == dir {
			return true
		}
	}
	return false
}
