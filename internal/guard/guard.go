package guard

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

// Analysis is the outcome of running the full check battery against one
// piece of content.
type Analysis struct {
	AnalysisID      string         `json:"analysis_id"`
	ContentID       string         `json:"content_id"`
	Timestamp       time.Time      `json:"timestamp"`
	Flags           []SecurityFlag `json:"flags"`
	RiskLevel       string         `json:"risk_level"`
	Recommendations []string       `json:"recommendations"`
}

// Guard runs content safety checks, audits the results, and enforces the
// kill switch across guarded operations.
type Guard struct {
	killSwitch *KillSwitch
	audit      *AuditLog
	vault      *Vault
	logger     logging.Logger
}

// New wires a Guard from its collaborators.
func New(killSwitch *KillSwitch, audit *AuditLog, vault *Vault, logger logging.Logger) *Guard {
	return &Guard{
		killSwitch: killSwitch,
		audit:      audit,
		vault:      vault,
		logger:     logger,
	}
}

// KillSwitch exposes the guard's kill switch for callers that gate their
// own operations on it.
func (g *Guard) KillSwitch() *KillSwitch {
	return g.killSwitch
}

// Vault exposes the guard's encryption vault.
func (g *Guard) Vault() *Vault {
	return g.vault
}

// Audit exposes the guard's audit log.
func (g *Guard) Audit() *AuditLog {
	return g.audit
}

// AnalyzeContent runs every check against content and records the result
// in the daily analysis log. Returns ErrKillSwitchActive without analyzing
// while the kill switch is engaged.
func (g *Guard) AnalyzeContent(contentID, content string) (Analysis, error) {
	if g.killSwitch.Active() {
		return Analysis{}, ErrKillSwitchActive
	}

	var flags []SecurityFlag
	flags = append(flags, checkProfanity(content)...)
	flags = append(flags, checkBias(content)...)
	flags = append(flags, checkControversy(content)...)
	flags = append(flags, checkHateSpeech(content)...)
	flags = append(flags, checkMisinformation(content)...)

	analysis := Analysis{
		AnalysisID:      uuid.New().String(),
		ContentID:       contentID,
		Timestamp:       time.Now().UTC(),
		Flags:           flags,
		RiskLevel:       RiskLevel(flags),
		Recommendations: Recommendations(flags),
	}

	if err := g.audit.AppendAnalysis(AnalysisRecord{
		AnalysisID: analysis.AnalysisID,
		ContentID:  analysis.ContentID,
		Timestamp:  analysis.Timestamp,
		RiskLevel:  analysis.RiskLevel,
		FlagCount:  len(analysis.Flags),
		Flags:      analysis.Flags,
	}); err != nil {
		return Analysis{}, fmt.Errorf("audit analysis: %w", err)
	}

	g.logger.WithFields(logging.Fields{
		"content_id": contentID,
		"risk_level": analysis.RiskLevel,
		"flags":      len(flags),
	}).Info("Content analyzed")
	return analysis, nil
}

// Dashboard summarizes today's analyses and the current kill switch state.
func (g *Guard) Dashboard() map[string]any {
	analyses := g.audit.TodayAnalyses()

	byRisk := map[string]int{"low": 0, "medium": 0, "high": 0}
	flagged := 0
	for _, rec := range analyses {
		byRisk[rec.RiskLevel]++
		if rec.FlagCount > 0 {
			flagged++
		}
	}

	state := g.killSwitch.State()
	return map[string]any{
		"date":               time.Now().UTC().Format("2006-01-02"),
		"total_analyses":     len(analyses),
		"flagged_content":    flagged,
		"risk_distribution":  byRisk,
		"kill_switch_active": state.Active,
		"kill_switch":        state,
		"recent_events":      g.audit.TodayEvents(),
	}
}

func checkProfanity(content string) []SecurityFlag {
	lowered := strings.ToLower(content)
	var matches []string
	for _, pat := range profanityPatterns {
		matches = append(matches, pat.FindAllString(lowered, -1)...)
	}
	if len(matches) == 0 {
		return nil
	}
	return []SecurityFlag{newFlag(FlagProfanity, SeverityMedium, map[string]any{
		"matches": matches,
	})}
}

func checkBias(content string) []SecurityFlag {
	lowered := strings.ToLower(content)
	var flags []SecurityFlag

	if hits := keywordHits(lowered, religiousBiasKeywords); len(hits) > 0 {
		flags = append(flags, newFlag(FlagReligiousBias, biasSeverity(hits), map[string]any{
			"keywords": hits,
		}))
	}
	if hits := keywordHits(lowered, politicalBiasKeywords); len(hits) > 0 {
		flags = append(flags, newFlag(FlagPoliticalBias, biasSeverity(hits), map[string]any{
			"keywords": hits,
		}))
	}
	return flags
}

// biasSeverity escalates to high when a text trips more than two distinct
// bias keywords.
func biasSeverity(hits []string) Severity {
	if len(hits) > 2 {
		return SeverityHigh
	}
	return SeverityMedium
}

func checkControversy(content string) []SecurityFlag {
	hits := keywordHits(strings.ToLower(content), controversyKeywords)
	if len(hits) == 0 {
		return nil
	}
	return []SecurityFlag{newFlag(FlagControversy, SeverityLow, map[string]any{
		"keywords": hits,
	})}
}

func checkHateSpeech(content string) []SecurityFlag {
	lowered := strings.ToLower(content)
	var matches []string
	for _, pat := range hateSpeechPatterns {
		matches = append(matches, pat.FindAllString(lowered, -1)...)
	}
	if len(matches) == 0 {
		return nil
	}
	return []SecurityFlag{newFlag(FlagHateSpeech, SeverityCritical, map[string]any{
		"matches": matches,
	})}
}

func checkMisinformation(content string) []SecurityFlag {
	hits := keywordHits(strings.ToLower(content), misinformationIndicators)
	if len(hits) == 0 {
		return nil
	}
	return []SecurityFlag{newFlag(FlagMisinformation, SeverityMedium, map[string]any{
		"indicators": hits,
	})}
}

func keywordHits(lowered string, keywords []string) []string {
	var hits []string
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}
