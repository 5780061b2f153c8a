// Package report locates and reads the scan report written by the agent.
package report

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	apperrors "github.com/whitesource/scan-action/internal/errors"
)

const (
	// RootDir is where the agent writes its reports, relative to the working directory.
	RootDir  = "whitesource"
	FileName = "scan_report.json"
)

// Find walks root in lexical, depth-first order and returns the first regular
// file named scan_report.json. A missing root is not an error; it yields "".
func Find(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.Type().IsRegular() && d.Name() == FileName {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", apperrors.NewReportError("find scan report", root, err)
	}
	return found, nil
}

// Folder returns everything before the last '/' in path, or "" when there is none.
func Folder(path string) string {
	i := strings.LastIndex(filepath.ToSlash(path), "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Read returns the report contents as text.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewReportError("read scan report", path, err)
	}
	return string(data), nil
}

// Report is the part of the agent's scan report the action inspects.
type Report struct {
	PolicyStatistics *struct {
		TotalIssues *int `json:"totalIssues"`
	} `json:"policyStatistics"`
}

// TotalIssues parses the report at path and returns policyStatistics.totalIssues.
func TotalIssues(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, apperrors.NewReportError("read scan report", path, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return 0, apperrors.NewReportError("parse scan report", path, err)
	}
	if r.PolicyStatistics == nil || r.PolicyStatistics.TotalIssues == nil {
		return 0, apperrors.NewReportError("parse scan report", path, errors.New("policyStatistics.totalIssues is missing"))
	}
	return *r.PolicyStatistics.TotalIssues, nil
}
