package domain

import (
	"fmt"
	"strings"
)

type FormulaRecord struct {
	Name             string   `json:"name"`
	InstalledVersion string   `json:"installed_version,omitempty"`
	LatestVersion    string   `json:"latest_version,omitempty"`
	Description      string   `json:"desc,omitempty"`
	Homepage         string   `json:"homepage,omitempty"`
	License          string   `json:"license,omitempty"`
	Tap              string   `json:"tap,omitempty"`
	Dependencies     []string `json:"dependencies,omitempty"`
	Caveats          string   `json:"caveats,omitempty"`
	Pinned           bool     `json:"pinned,omitempty"`
	Leaf             bool     `json:"leaf,omitempty"`
}

// Installed is also true for leaves: the leaves listing names installed
// formulae without their versions.
func (f FormulaRecord) Installed() bool {
	return f.InstalledVersion != "" || f.Leaf
}

func (f FormulaRecord) Outdated() bool {
	return f.InstalledVersion != "" && f.LatestVersion != "" && f.InstalledVersion != f.LatestVersion
}

// Status folds the record flags into the single status used for sorting and
// display. Pinned wins over Outdated, which wins over Installed.
func (f FormulaRecord) Status() Status {
	switch {
	case f.Pinned:
		return StatusPinned
	case f.Outdated():
		return StatusOutdated
	case f.Installed():
		return StatusInstalled
	default:
		return StatusNone
	}
}

type Status int

const (
	StatusInstalled Status = iota
	StatusOutdated
	StatusPinned
	StatusNone
)

func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusOutdated:
		return "outdated"
	case StatusPinned:
		return "pinned"
	default:
		return "available"
	}
}

type Category int

const (
	CategoryInstalled Category = iota
	CategoryOutdated
	CategoryAll
	CategoryLeaves
	CategoryPinned
	CategoryTaps
)

var categoryNames = [...]string{"installed", "outdated", "all", "leaves", "pinned", "taps"}

func Categories() []Category {
	return []Category{CategoryInstalled, CategoryOutdated, CategoryAll, CategoryLeaves, CategoryPinned, CategoryTaps}
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q (want one of %s)", s, strings.Join(categoryNames[:], ", "))
}

type CommandClass int

const (
	ClassRead CommandClass = iota
	ClassInstall
	ClassUninstall
	ClassUpgrade
	ClassPin
	ClassUnpin
	ClassTap
	ClassUntap
	ClassUpdate
	ClassCleanup
	ClassDoctor
)

var classNames = [...]string{"read", "install", "uninstall", "upgrade", "pin", "unpin", "tap", "untap", "update", "cleanup", "doctor"}

func (c CommandClass) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return fmt.Sprintf("class(%d)", int(c))
	}
	return classNames[c]
}

func ParseCommandClass(s string) (CommandClass, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range classNames {
		if name == s {
			return CommandClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown command class %q", s)
}

// TargetsTap reports whether the class operates on a tap rather than a formula.
func (c CommandClass) TargetsTap() bool {
	return c == ClassTap || c == ClassUntap
}

type JobState int

const (
	JobPending JobState = iota
	JobRunning
	JobSucceeded
	JobFailed
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// Tag is advisory presentation metadata for one output line. It never
// influences job state.
type Tag int

const (
	TagInfo Tag = iota
	TagStep
	TagError
	TagWarning
	TagSuccess
)

func (t Tag) String() string {
	switch t {
	case TagStep:
		return "step"
	case TagError:
		return "error"
	case TagWarning:
		return "warning"
	case TagSuccess:
		return "success"
	default:
		return "info"
	}
}
