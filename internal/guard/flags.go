package guard

import (
	"time"

	"github.com/google/uuid"
)

// FlagType classifies what a content check detected.
type FlagType string

const (
	FlagProfanity      FlagType = "profanity"
	FlagBias           FlagType = "bias"
	FlagControversy    FlagType = "controversy"
	FlagReligiousBias  FlagType = "religious_bias"
	FlagPoliticalBias  FlagType = "political_bias"
	FlagHateSpeech     FlagType = "hate_speech"
	FlagMisinformation FlagType = "misinformation"
)

// Severity ranks how serious a flag is. Severities are totally ordered:
// low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// AtLeast reports whether s is equal to or more severe than other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// SecurityFlag is one finding from a content analysis. Flags are
// ephemeral: produced per call, never mutated afterwards.
type SecurityFlag struct {
	FlagID    string         `json:"flag_id"`
	Type      FlagType       `json:"type"`
	Severity  Severity       `json:"severity"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

func newFlag(flagType FlagType, severity Severity, details map[string]any) SecurityFlag {
	return SecurityFlag{
		FlagID:    uuid.New().String(),
		Type:      flagType,
		Severity:  severity,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
}

// RiskLevel condenses a flag list into low/medium/high for API consumers.
func RiskLevel(flags []SecurityFlag) string {
	level := "low"
	for _, flag := range flags {
		if flag.Severity.AtLeast(SeverityHigh) {
			return "high"
		}
		if flag.Severity == SeverityMedium {
			level = "medium"
		}
	}
	return level
}

// Recommendations maps flag types to operator guidance.
func Recommendations(flags []SecurityFlag) []string {
	seen := make(map[FlagType]bool)
	for _, flag := range flags {
		seen[flag.Type] = true
	}

	var out []string
	if seen[FlagHateSpeech] {
		out = append(out, "Content contains hate speech - immediate review required")
	}
	if seen[FlagReligiousBias] || seen[FlagPoliticalBias] {
		out = append(out, "Content shows bias - consider neutral rephrasing")
	}
	if seen[FlagProfanity] {
		out = append(out, "Remove profane language before publishing")
	}
	if seen[FlagMisinformation] {
		out = append(out, "Verify facts and add credible sources")
	}
	return out
}
