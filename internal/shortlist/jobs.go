package shortlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nilesh-r/jobsense/internal/analysis"
	"github.com/nilesh-r/jobsense/internal/extract"
)

// LoadJobs reads every supported file in dir as a job description. Files with an
// unknown extension and empty documents are skipped. The title is the file name
// without its extension.
func LoadJobs(dir string) ([]*Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read jobs dir: %w", err)
	}

	jobs := make([]*Job, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		mime := extract.MIMEFromPath(path)
		if mime == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read job %q: %w", path, err)
		}

		text, err := extract.Text(mime, data)
		if err != nil {
			return nil, fmt.Errorf("extract job %q: %w", path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		id := analysis.ContentID(text)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		jobs = append(jobs, &Job{
			ID:          id,
			Title:       strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:        path,
			Description: text,
		})
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })

	return jobs, nil
}
