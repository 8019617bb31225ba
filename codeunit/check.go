package codeunit

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/cxxbind/errors"
)

// CheckResult holds the result of an output check
type CheckResult struct {
	UpToDate    bool
	Differences map[string][]string // language -> files with differences
}

// Target pairs a directory of freshly generated files with the directory
// holding the committed output
type Target struct {
	Language  string
	Generated string
	Existing  string
}

// CompareDirectories compares every file under each target's Generated
// directory with the file at the same relative path under Existing.
// The banner line is ignored so a version bump alone is not a difference.
func CompareDirectories(targets []Target) (*CheckResult, error) {
	differences := make(map[string][]string)
	for _, t := range targets {
		diffs, err := compareDirectory(t.Generated, t.Existing)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to compare %s output", t.Language)
		}
		if len(diffs) > 0 {
			differences[t.Language] = append(differences[t.Language], diffs...)
		}
	}
	return &CheckResult{
		UpToDate:    len(differences) == 0,
		Differences: differences,
	}, nil
}

func compareDirectory(generatedDir, existingDir string) ([]string, error) {
	var diffs []string
	if _, err := os.Stat(generatedDir); os.IsNotExist(err) {
		return diffs, nil
	}

	err := filepath.Walk(generatedDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(generatedDir, path)
		if err != nil {
			return err
		}
		existing := filepath.Join(existingDir, rel)
		if _, err := os.Stat(existing); os.IsNotExist(err) {
			diffs = append(diffs, rel+" (missing)")
			return nil
		}
		different, err := filesAreDifferent(path, existing)
		if err != nil {
			diffs = append(diffs, rel+" (error: "+err.Error()+")")
		} else if different {
			diffs = append(diffs, rel)
		}
		return nil
	})
	return diffs, err
}

func filesAreDifferent(file1, file2 string) (bool, error) {
	content1, err := os.ReadFile(file1)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", file1)
	}
	content2, err := os.ReadFile(file2)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", file2)
	}
	return filterBanner(content1) != filterBanner(content2), nil
}

// filterBanner drops the "// Generated by cxxbind" line. Returns an empty
// string when the scanner fails, which makes the comparison fail too.
func filterBanner(content []byte) string {
	var result strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "// Generated by cxxbind") {
			continue
		}
		result.WriteString(line)
		result.WriteString("\n")
	}
	if scanner.Err() != nil {
		return ""
	}
	return result.String()
}
