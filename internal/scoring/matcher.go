package scoring

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nilesh-r/jobsense/internal/vocabulary"
)

const minTokenLength = 4

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Matches holds the keyword level signal between a resume and a job description.
type Matches struct {
	Matched         []string
	Missing         []string
	Partial         []string
	TotalKeywords   int
	KeywordScore    int
	SkillsScore     int
	ExperienceScore int
}

// Tokenize lowercases text, replaces punctuation with spaces and returns the words
// longer than three characters. Order and duplicates are kept.
func Tokenize(text string) []string {
	cleaned := nonWord.ReplaceAllString(lower(text), " ")

	tokens := make([]string, 0)
	for _, word := range strings.Fields(cleaned) {
		if len(word) < minTokenLength {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// lower applies full Unicode case mapping, so "İ" becomes "i" plus a combining dot
// that later splits the word. A Caser is stateful and is not shared between goroutines.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Match classifies job description tokens against the vocabulary and the resume.
//
// The partial pass looks at every token, including ones already classified by the
// exact pass, and uses plain substring containment in both directions. Tokens such
// as "interest" therefore count as a partial match of "rest".
func Match(vocab *vocabulary.Vocabulary, resumeText, jobDescription string) Matches {
	resume := lower(resumeText)
	tokens := Tokenize(jobDescription)

	var matched, missing, partial []string
	total := 0

	for _, token := range tokens {
		if !vocab.IsTechnical(token) {
			continue
		}
		total++

		if strings.Contains(resume, token) {
			matched = appendUnique(matched, token)
		} else {
			missing = appendUnique(missing, token)
		}
	}

	for _, token := range tokens {
		if !overlapsTechnical(vocab, token) {
			continue
		}
		if slices.Contains(matched, token) || slices.Contains(missing, token) {
			continue
		}
		partial = appendUnique(partial, token)
	}

	if total == 0 {
		total = 1
	}

	keywordScore := int(math.Round(100 * float64(len(matched)) / float64(total)))

	return Matches{
		Matched:         nonNil(matched),
		Missing:         truncate(missing, MaxKeywords),
		Partial:         truncate(partial, MaxKeywords),
		TotalKeywords:   total,
		KeywordScore:    keywordScore,
		SkillsScore:     keywordScore,
		ExperienceScore: experienceScore(vocab, resume),
	}
}

func overlapsTechnical(vocab *vocabulary.Vocabulary, token string) bool {
	found := false
	vocab.EachTechnical(func(term string) bool {
		found = strings.Contains(term, token) || strings.Contains(token, term)
		return found
	})
	return found
}

func experienceScore(vocab *vocabulary.Vocabulary, resume string) int {
	found := false
	vocab.EachExperience(func(indicator string) bool {
		found = strings.Contains(resume, indicator)
		return found
	})
	if found {
		return experienceFound
	}
	return experienceMissing
}

func appendUnique(list []string, word string) []string {
	if slices.Contains(list, word) {
		return list
	}
	return append(list, word)
}

func truncate(list []string, limit int) []string {
	if len(list) > limit {
		list = slices.Clone(list[:limit])
	}
	return nonNil(list)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
