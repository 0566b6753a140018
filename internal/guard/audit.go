package guard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditLog appends structured records to daily JSON files. Two streams are
// kept: content analysis results and security events (kill switch toggles,
// archive creation). Files roll over per UTC day.
type AuditLog struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewAuditLog creates the log directory if needed.
func NewAuditLog(dir string) (*AuditLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	return &AuditLog{dir: dir, now: time.Now}, nil
}

// AnalysisRecord is one audited content analysis.
type AnalysisRecord struct {
	AnalysisID string         `json:"analysis_id"`
	ContentID  string         `json:"content_id"`
	Timestamp  time.Time      `json:"timestamp"`
	RiskLevel  string         `json:"risk_level"`
	FlagCount  int            `json:"flag_count"`
	Flags      []SecurityFlag `json:"flags"`
}

// EventRecord is one audited security event.
type EventRecord struct {
	EventType string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details"`
}

func (a *AuditLog) analysisPath(day time.Time) string {
	return filepath.Join(a.dir, fmt.Sprintf("security_analysis_%s.json", day.Format("20060102")))
}

func (a *AuditLog) eventPath(day time.Time) string {
	return filepath.Join(a.dir, fmt.Sprintf("security_events_%s.json", day.Format("20060102")))
}

// AppendAnalysis records a content analysis in today's analysis log.
func (a *AuditLog) AppendAnalysis(rec AnalysisRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.analysisPath(a.now().UTC())
	var records []AnalysisRecord
	if err := readJSONArray(path, &records); err != nil {
		return err
	}
	records = append(records, rec)
	return writeJSONArray(path, records)
}

// AppendEvent records a security event in today's event log.
func (a *AuditLog) AppendEvent(eventType string, details map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := a.eventPath(a.now().UTC())
	var records []EventRecord
	if err := readJSONArray(path, &records); err != nil {
		return err
	}
	records = append(records, EventRecord{
		EventType: eventType,
		Timestamp: a.now().UTC(),
		Details:   details,
	})
	return writeJSONArray(path, records)
}

// TodayAnalyses returns the analysis records logged today, oldest first.
// A missing or corrupt log file yields an empty slice.
func (a *AuditLog) TodayAnalyses() []AnalysisRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	var records []AnalysisRecord
	if err := readJSONArray(a.analysisPath(a.now().UTC()), &records); err != nil {
		return nil
	}
	return records
}

// TodayEvents returns the security events logged today, oldest first.
func (a *AuditLog) TodayEvents() []EventRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	var records []EventRecord
	if err := readJSONArray(a.eventPath(a.now().UTC()), &records); err != nil {
		return nil
	}
	return records
}

// readJSONArray loads a JSON array file into out. A missing file leaves
// out empty; a corrupt file is discarded rather than propagated so a bad
// day's log never blocks new appends.
func readJSONArray(path string, out any) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read audit log %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil
	}
	return nil
}

func writeJSONArray(path string, records any) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write audit log %s: %w", path, err)
	}
	return nil
}
