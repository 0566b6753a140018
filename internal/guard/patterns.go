package guard

import "regexp"

// Detection patterns for the content checks. Each check is pure and
// order-independent; keyword matching is case-insensitive via the
// lowercased input.

var profanityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(damn|hell|crap)\b`),
	regexp.MustCompile(`\b(stupid|idiot|moron)\b`),
}

var hateSpeechPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(hate|despise|loathe)\s+(all|every)\s+\w+`),
	regexp.MustCompile(`\b(kill|destroy|eliminate)\s+(all|every)\s+\w+`),
}

var religiousBiasKeywords = []string{
	"infidel", "heretic", "blasphemy", "false prophet",
	"religious war", "holy war", "crusade", "jihad",
}

var politicalBiasKeywords = []string{
	"radical left", "radical right", "fascist", "communist",
	"liberal agenda", "conservative agenda", "deep state",
}

var controversyKeywords = []string{
	"controversial", "disputed", "debated", "contentious",
	"polarizing", "divisive", "inflammatory",
}

var misinformationIndicators = []string{
	"proven fact", "scientists agree", "studies show",
	"everyone knows", "obvious truth", "undeniable",
}
