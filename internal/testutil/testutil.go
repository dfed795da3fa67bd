// Package testutil writes job history fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/panbanda/trendline/pkg/history"
	"github.com/panbanda/trendline/pkg/models"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// BuildPath returns the record path of build number under root.
func BuildPath(root string, number int) string {
	return filepath.Join(root, "builds", strconv.Itoa(number), "result.json")
}

// WriteRecord writes r as the record of its build under root.
func WriteRecord(t *testing.T, root string, r *models.AnalysisResult) {
	t.Helper()
	data, err := history.EncodeRecord(r)
	if err != nil {
		t.Fatalf("EncodeRecord(#%d) error: %v", r.BuildNumber, err)
	}
	WriteFile(t, BuildPath(root, r.BuildNumber), string(data))
}

// DailyJob writes one build per day under root, the last one at last.
// Build n has totals[n-1] low priority issues.
func DailyJob(t *testing.T, root string, last time.Time, totals ...int) string {
	t.Helper()
	for i, v := range totals {
		number := i + 1
		r := models.NewAnalysisResult("", number, last.AddDate(0, 0, number-len(totals)))
		r.Low = v
		WriteRecord(t, root, r)
	}
	return root
}
