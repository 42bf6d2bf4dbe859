// Package index turns listing output of the external executable into
// structured formula records and answers search and sort queries over them.
package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/teamcutter/linebrew/internal/domain"
)

var (
	formulaName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9@+._-]*(/[A-Za-z0-9@+._-]+){0,2}$`)
	tapName     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*/[A-Za-z0-9_.-]+$`)
)

type formulaJSON struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Tap      string `json:"tap"`
	Desc     string `json:"desc"`
	License  string `json:"license"`
	Homepage string `json:"homepage"`
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
	Revision     int      `json:"revision"`
	Dependencies []string `json:"dependencies"`
	Caveats      string   `json:"caveats"`
	Pinned       bool     `json:"pinned"`
	LinkedKeg    string   `json:"linked_keg"`
	Installed    []struct {
		Version string `json:"version"`
	} `json:"installed"`
}

type outdatedJSON struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
	Pinned            bool     `json:"pinned"`
}

// Parse structures the stdout of one category listing. Blocks that cannot be
// structured are skipped and reported as warnings.
func Parse(category domain.Category, data []byte) *domain.Listing {
	listing := &domain.Listing{}

	switch category {
	case domain.CategoryInstalled:
		listing.Records, listing.Warnings = ParseInfo(category, data)
	case domain.CategoryOutdated:
		listing.Records, listing.Warnings = ParseOutdated(data)
	case domain.CategoryAll:
		listing.Records, listing.Warnings = parseNames(category, data, false)
	case domain.CategoryLeaves:
		listing.Records, listing.Warnings = parseNames(category, data, true)
	case domain.CategoryPinned:
		listing.Records, listing.Warnings = ParsePinned(data)
	case domain.CategoryTaps:
		listing.Taps, listing.Warnings = ParseTaps(data)
	}

	return listing
}

// ParseInfo decodes `info --json=v2` (or the v1 top-level array) output.
func ParseInfo(category domain.Category, data []byte) ([]domain.FormulaRecord, []domain.ParseWarning) {
	var records []domain.FormulaRecord

	warnings := decodeFormulae(category, data, func(block int, raw json.RawMessage) *domain.ParseWarning {
		var f formulaJSON
		if err := json.Unmarshal(raw, &f); err != nil {
			return blockWarning(category, block, raw, err.Error())
		}
		if f.Name == "" {
			return blockWarning(category, block, raw, "missing name")
		}
		records = append(records, toRecord(&f))
		return nil
	})

	return records, warnings
}

// ParseOutdated decodes `outdated --json=v2` output.
func ParseOutdated(data []byte) ([]domain.FormulaRecord, []domain.ParseWarning) {
	const category = domain.CategoryOutdated
	var records []domain.FormulaRecord

	warnings := decodeFormulae(category, data, func(block int, raw json.RawMessage) *domain.ParseWarning {
		var o outdatedJSON
		if err := json.Unmarshal(raw, &o); err != nil {
			return blockWarning(category, block, raw, err.Error())
		}
		if o.Name == "" || len(o.InstalledVersions) == 0 {
			return blockWarning(category, block, raw, "missing name or installed version")
		}
		records = append(records, domain.FormulaRecord{
			Name:             o.Name,
			InstalledVersion: o.InstalledVersions[len(o.InstalledVersions)-1],
			LatestVersion:    o.CurrentVersion,
			Pinned:           o.Pinned,
		})
		return nil
	})

	return records, warnings
}

// ParsePinned reads `list --pinned --versions` lines of the form "name version...".
func ParsePinned(data []byte) ([]domain.FormulaRecord, []domain.ParseWarning) {
	var records []domain.FormulaRecord
	var warnings []domain.ParseWarning

	eachLine(data, func(block int, line string) {
		fields := strings.Fields(line)
		if !formulaName.MatchString(fields[0]) {
			warnings = append(warnings, lineWarning(domain.CategoryPinned, block, line, "invalid formula name"))
			return
		}
		rec := domain.FormulaRecord{Name: fields[0], Pinned: true}
		if len(fields) > 1 {
			rec.InstalledVersion = fields[len(fields)-1]
		}
		records = append(records, rec)
	})

	return records, warnings
}

// ParseTaps reads `tap` output, one "user/repo" per line.
func ParseTaps(data []byte) ([]string, []domain.ParseWarning) {
	var taps []string
	var warnings []domain.ParseWarning

	eachLine(data, func(block int, line string) {
		if !tapName.MatchString(line) {
			warnings = append(warnings, lineWarning(domain.CategoryTaps, block, line, "invalid tap name"))
			return
		}
		taps = append(taps, line)
	})

	return taps, warnings
}

func parseNames(category domain.Category, data []byte, leaf bool) ([]domain.FormulaRecord, []domain.ParseWarning) {
	var records []domain.FormulaRecord
	var warnings []domain.ParseWarning

	eachLine(data, func(block int, line string) {
		if !formulaName.MatchString(line) {
			warnings = append(warnings, lineWarning(category, block, line, "invalid formula name"))
			return
		}
		records = append(records, domain.FormulaRecord{Name: line, Leaf: leaf})
	})

	return records, warnings
}

// decodeFormulae streams the formula objects out of either a v2 document
// ({"formulae": [...], "casks": [...]}) or a bare v1 array. Each element is
// taken as raw JSON first, so a record with the wrong shape costs only
// itself. A syntax error is different: the decoder cannot find the next
// element boundary, so decoding ends there and only the records before it
// are kept.
func decodeFormulae(category domain.Category, data []byte, each func(int, json.RawMessage) *domain.ParseWarning) []domain.ParseWarning {
	var warnings []domain.ParseWarning
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	fail := func(block int, err error) []domain.ParseWarning {
		return append(warnings, domain.ParseWarning{
			Category: category,
			Block:    block,
			Reason:   fmt.Sprintf("malformed document: %v", err),
		})
	}

	tok, err := dec.Token()
	if err != nil {
		return fail(0, err)
	}

	if tok == json.Delim('{') {
		found := false
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return fail(0, err)
			}
			if key != "formulae" {
				var skip json.RawMessage
				if err := dec.Decode(&skip); err != nil {
					return fail(0, err)
				}
				continue
			}
			if tok, err = dec.Token(); err != nil {
				return fail(0, err)
			}
			found = true
			break
		}
		if !found {
			return nil
		}
	}

	if tok != json.Delim('[') {
		return fail(0, errors.New("expected an array of formulae"))
	}

	for block := 0; dec.More(); block++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return fail(block, err)
		}
		if w := each(block, raw); w != nil {
			warnings = append(warnings, *w)
		}
	}

	return warnings
}

func eachLine(data []byte, fn func(block int, line string)) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for block := 0; scanner.Scan(); block++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(block, line)
	}
}

func toRecord(f *formulaJSON) domain.FormulaRecord {
	installed := f.LinkedKeg
	if installed == "" && len(f.Installed) > 0 {
		installed = f.Installed[len(f.Installed)-1].Version
	}

	tap := f.Tap
	if tap == "" {
		if i := strings.LastIndex(f.FullName, "/"); i > 0 {
			tap = f.FullName[:i]
		}
	}

	return domain.FormulaRecord{
		Name:             f.Name,
		InstalledVersion: installed,
		LatestVersion:    formatVersion(f.Versions.Stable, f.Revision),
		Description:      f.Desc,
		Homepage:         f.Homepage,
		License:          f.License,
		Tap:              tap,
		Dependencies:     f.Dependencies,
		Caveats:          strings.TrimSpace(f.Caveats),
		Pinned:           f.Pinned,
	}
}

// Installed kegs carry the revision suffix ("1.2_1"), so the latest version
// has to as well for the two to compare equal.
func formatVersion(version string, revision int) string {
	if version != "" && revision > 0 {
		return fmt.Sprintf("%s_%d", version, revision)
	}
	return version
}

func blockWarning(category domain.Category, block int, raw json.RawMessage, reason string) *domain.ParseWarning {
	w := lineWarning(category, block, string(raw), reason)
	return &w
}

func lineWarning(category domain.Category, block int, text, reason string) domain.ParseWarning {
	const maxText = 200
	if len(text) > maxText {
		text = text[:maxText] + "..."
	}
	return domain.ParseWarning{Category: category, Block: block, Text: text, Reason: reason}
}
