package scoring

import (
	"fmt"
	"math"
	"strings"
)

const (
	keywordWeight    = 0.4
	skillsWeight     = 0.4
	experienceWeight = 0.2

	basicBlendWeight      = 0.6
	similarityBlendWeight = 0.4

	suggestMissingCount = 5
	suggestPartialCount = 3

	lowExperienceScore = 60
	lowOverallScore    = 70
	maxScore           = 100
)

const (
	suggestionExperience = "Add more experience-related keywords and quantify your achievements"
	suggestionAlign      = "Review the job description and align your resume keywords more closely"
)

// Blended is a Result merged with an optional external similarity signal.
type Blended struct {
	Result
	EmbeddingSimilarity *float64 `json:"embeddingSimilarity"`
	FinalATSScore       int      `json:"finalAtsScore"`
}

// Compose combines matcher output into the overall score and suggestions.
func Compose(m Matches) Result {
	overall := int(math.Round(
		float64(m.KeywordScore)*keywordWeight +
			float64(m.SkillsScore)*skillsWeight +
			float64(m.ExperienceScore)*experienceWeight,
	))
	overall = min(overall, maxScore)

	return Result{
		OverallScore:         overall,
		KeywordScore:         m.KeywordScore,
		SkillsScore:          m.SkillsScore,
		ExperienceScore:      m.ExperienceScore,
		MatchedKeywords:      m.Matched,
		MissingKeywords:      m.Missing,
		PartialMatchKeywords: m.Partial,
		Suggestions:          Suggestions(m.Missing, m.Partial, m.ExperienceScore, overall),
	}
}

// Suggestions builds the cumulative list of improvement hints.
func Suggestions(missing, partial []string, experienceScore, overallScore int) []string {
	suggestions := make([]string, 0, 4)

	if len(missing) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Add these keywords to your resume: %s",
			strings.Join(missing[:min(len(missing), suggestMissingCount)], ", ")))
	}
	if len(partial) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Consider adding variations: %s",
			strings.Join(partial[:min(len(partial), suggestPartialCount)], ", ")))
	}
	if experienceScore < lowExperienceScore {
		suggestions = append(suggestions, suggestionExperience)
	}
	if overallScore < lowOverallScore {
		suggestions = append(suggestions, suggestionAlign)
	}

	return suggestions
}

// Blend merges an external similarity value into result. A nil similarity, or a
// NaN/Inf one, leaves the basic score and suggestions untouched. External
// suggestions replace the basic ones only when a similarity is present and at
// least one suggestion was supplied.
func Blend(result Result, similarity *float64, externalSuggestions []string) Blended {
	blended := Blended{
		Result:        result,
		FinalATSScore: result.OverallScore,
	}

	if similarity == nil || math.IsNaN(*similarity) || math.IsInf(*similarity, 0) {
		return blended
	}

	value := min(max(*similarity, 0), 1)
	blended.EmbeddingSimilarity = &value

	final := int(math.Round(float64(result.OverallScore)*basicBlendWeight + value*100*similarityBlendWeight))
	blended.FinalATSScore = min(max(final, 0), maxScore)

	if len(externalSuggestions) > 0 {
		blended.Suggestions = append([]string(nil), externalSuggestions...)
	}

	return blended
}
