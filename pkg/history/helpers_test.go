package history

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/trendline/pkg/models"
)

var base = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func record(number, low int) *models.AnalysisResult {
	r := models.NewAnalysisResult("", number, base.AddDate(0, 0, number))
	r.Low = low
	return r
}

func writeDirRecord(t *testing.T, root string, r *models.AnalysisResult) {
	t.Helper()
	data, err := EncodeRecord(r)
	require.NoError(t, err)
	writeDirFile(t, root, r.BuildNumber, data)
}

func writeDirFile(t *testing.T, root string, number int, data []byte) {
	t.Helper()
	dir := filepath.Join(root, "builds", strconv.Itoa(number))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "result.json"), data, 0o644))
}

// gitCommit describes one commit of a test repository. A nil record commits
// an unrelated file only.
type gitCommit struct {
	record *models.AnalysisResult
	raw    []byte
}

func initGitHistory(t *testing.T, resultFile string, commits ...gitCommit) string {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	for i, c := range commits {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(repoPath, resultFile)), 0o755))
		switch {
		case c.raw != nil:
			require.NoError(t, os.WriteFile(filepath.Join(repoPath, resultFile), c.raw, 0o644))
			_, err = w.Add(resultFile)
			require.NoError(t, err)
		case c.record != nil:
			data, err := EncodeRecord(c.record)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(filepath.Join(repoPath, resultFile), data, 0o644))
			_, err = w.Add(resultFile)
			require.NoError(t, err)
		default:
			name := "notes-" + strconv.Itoa(i) + ".txt"
			require.NoError(t, os.WriteFile(filepath.Join(repoPath, name), []byte("notes\n"), 0o644))
			_, err = w.Add(name)
			require.NoError(t, err)
		}
		_, err = w.Commit("commit "+strconv.Itoa(i), &git.CommitOptions{
			Author: &object.Signature{
				Name:  "CI",
				Email: "ci@example.com",
				When:  base.Add(time.Duration(i) * time.Hour),
			},
		})
		require.NoError(t, err)
	}
	return repoPath
}

func collect(h History) []int {
	var numbers []int
	it := h.Runs()
	for {
		r, ok := it.Next()
		if !ok {
			return numbers
		}
		numbers = append(numbers, r.Number())
	}
}
