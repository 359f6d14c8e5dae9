// Package vocabulary holds the reference word lists the scoring engine classifies
// job description tokens against.
package vocabulary

import "strings"

var defaultTechnicalTerms = []string{
	"javascript", "typescript", "python", "java", "react", "node", "express",
	"sql", "mongodb", "postgresql", "aws", "docker", "kubernetes", "git",
	"html", "css", "angular", "vue", "nextjs", "graphql", "rest", "api",
}

var defaultExperienceIndicators = []string{
	"experience", "years", "worked", "developed", "built", "managed",
	"led", "implemented", "designed", "architected", "maintained",
}

// Vocabulary is a read-only pair of term lists. The zero value is empty and usable.
type Vocabulary struct {
	technical    []string
	technicalSet map[string]struct{}
	experience   []string
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	return New(defaultTechnicalTerms, defaultExperienceIndicators)
}

// New builds a vocabulary from the provided lists. Entries are trimmed and lowercased,
// empty entries and duplicates are dropped, first occurrence order is kept.
func New(technicalTerms, experienceIndicators []string) *Vocabulary {
	return build(normalize(technicalTerms), normalize(experienceIndicators))
}

// WithOverrides returns a vocabulary where each non-empty list replaces the matching
// list of v.
func (v *Vocabulary) WithOverrides(technicalTerms, experienceIndicators []string) *Vocabulary {
	technical := normalize(technicalTerms)
	if len(technical) == 0 {
		technical = v.TechnicalTerms()
	}

	experience := normalize(experienceIndicators)
	if len(experience) == 0 {
		experience = v.ExperienceIndicators()
	}

	return build(technical, experience)
}

// build expects normalized lists.
func build(technical, experience []string) *Vocabulary {
	set := make(map[string]struct{}, len(technical))
	for _, term := range technical {
		set[term] = struct{}{}
	}

	return &Vocabulary{
		technical:    technical,
		technicalSet: set,
		experience:   experience,
	}
}

// IsTechnical reports whether word is exactly one of the technical terms.
func (v *Vocabulary) IsTechnical(word string) bool {
	if v == nil {
		return false
	}
	_, ok := v.technicalSet[word]
	return ok
}

// TechnicalTerms returns a copy of the technical terms.
func (v *Vocabulary) TechnicalTerms() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.technical...)
}

// ExperienceIndicators returns a copy of the experience indicators.
func (v *Vocabulary) ExperienceIndicators() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.experience...)
}

// EachTechnical calls fn for every technical term until fn returns true.
func (v *Vocabulary) EachTechnical(fn func(term string) bool) {
	if v == nil {
		return
	}
	for _, term := range v.technical {
		if fn(term) {
			return
		}
	}
}

// EachExperience calls fn for every experience indicator until fn returns true.
func (v *Vocabulary) EachExperience(fn func(indicator string) bool) {
	if v == nil {
		return
	}
	for _, indicator := range v.experience {
		if fn(indicator) {
			return
		}
	}
}

func normalize(words []string) []string {
	result := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		result = append(result, word)
	}
	return result
}
