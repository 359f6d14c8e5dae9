// Package scoring turns a resume and a job description into a keyword based
// compatibility report. Scoring is pure and deterministic: the same inputs always
// produce the same Result, and a Scorer can be shared between goroutines.
package scoring

import (
	"github.com/nilesh-r/jobsense/internal/vocabulary"
)

const (
	// MaxKeywords caps missing and partial keyword lists independently.
	MaxKeywords = 10

	experienceFound   = 80
	experienceMissing = 40
)

// Input is a resume and job description pair, both already extracted to plain text.
type Input struct {
	ResumeText         string
	JobDescriptionText string
}

// Result is the basic scoring report.
type Result struct {
	OverallScore         int      `json:"overallScore"`
	KeywordScore         int      `json:"keywordScore"`
	SkillsScore          int      `json:"skillsScore"`
	ExperienceScore      int      `json:"experienceScore"`
	MatchedKeywords      []string `json:"matchedKeywords"`
	MissingKeywords      []string `json:"missingKeywords"`
	PartialMatchKeywords []string `json:"partialMatchKeywords"`
	Suggestions          []string `json:"suggestions"`
}

// Scorer scores inputs against a fixed vocabulary.
type Scorer struct {
	vocab *vocabulary.Vocabulary
}

// New creates a Scorer. A nil vocabulary falls back to vocabulary.Default().
func New(vocab *vocabulary.Vocabulary) *Scorer {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	return &Scorer{vocab: vocab}
}

// Vocabulary returns the vocabulary the scorer was built with.
func (s *Scorer) Vocabulary() *vocabulary.Vocabulary {
	return s.vocab
}

// Score runs the keyword matcher and the composer. It never fails.
func (s *Scorer) Score(in Input) Result {
	m := Match(s.vocab, in.ResumeText, in.JobDescriptionText)
	return Compose(m)
}
