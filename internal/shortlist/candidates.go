// Package shortlist scores one resume against many job descriptions and narrows
// the result down with a sequence of filters.
package shortlist

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

// Job is a job description loaded from disk.
type Job struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Path        string `json:"path"`
	Description string `json:"-"`
}

// Candidate is a job together with its analysis.
type Candidate struct {
	Job      *Job               `json:"job"`
	Analysis *analysis.Analysis `json:"analysis"`
}

type Candidates struct {
	Items []*Candidate `json:"items"`
}

// FromJobs wraps jobs into candidates that have not been analysed yet.
func FromJobs(jobs []*Job) *Candidates {
	items := make([]*Candidate, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, &Candidate{Job: job})
	}
	return &Candidates{Items: items}
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// IDs returns job IDs in list order.
func (c *Candidates) IDs() []string {
	ids := make([]string, 0, c.Len())
	for _, item := range c.Items {
		ids = append(ids, item.Job.ID)
	}
	return ids
}

func (c *Candidates) FindByID(id string) *Candidate {
	for _, item := range c.Items {
		if item.Job.ID == id {
			return item
		}
	}
	return nil
}

// Exclude removes candidates whose job ID is in targets and returns the removed IDs.
func (c *Candidates) Exclude(targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}

	return c.excludeFunc(func(item *Candidate) bool {
		_, ok := set[item.Job.ID]
		return ok
	})
}

func (c *Candidates) excludeFunc(drop func(*Candidate) bool) []string {
	var removed []string
	kept := c.Items[:0]
	for _, item := range c.Items {
		if drop(item) {
			removed = append(removed, item.Job.ID)
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	return removed
}

func (c *Candidates) RemoveByIndex(idx int) {
	if idx < 0 || idx >= len(c.Items) {
		return
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
}

// SortByScore orders candidates by ATS score, best first. Ties keep the job ID order.
func (c *Candidates) SortByScore() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		a, b := c.Items[i].Analysis.ATSScore, c.Items[j].Analysis.ATSScore
		if a != b {
			return a > b
		}
		return c.Items[i].Job.ID < c.Items[j].Job.ID
	})
}

// ReportByMissingKeyword groups job titles by the keywords they miss.
func (c *Candidates) ReportByMissingKeyword() map[string][]string {
	report := make(map[string][]string)
	for _, item := range c.Items {
		for _, kw := range item.Analysis.MissingKeywords {
			report[kw] = append(report[kw], item.Job.Title)
		}
	}
	return report
}

// DumpToTmpFile writes the candidates as JSON into a new temporary file and returns its name.
func (c *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "shortlist_*.json")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	return file.Name(), nil
}
