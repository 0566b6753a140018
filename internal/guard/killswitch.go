package guard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

// ErrKillSwitchActive is returned by guarded operations while the kill
// switch is engaged. Callers can branch on it to distinguish "system is
// paused" from validation failures.
var ErrKillSwitchActive = errors.New("kill switch is active - operation blocked")

// KillSwitchState is the persisted sentinel record.
type KillSwitchState struct {
	Active      bool      `json:"active"`
	ActivatedAt time.Time `json:"activated_at"`
	Reason      string    `json:"reason"`
	ActivatedBy string    `json:"activated_by"`
}

// KillSwitch is a global, file-backed flag that blocks guarded operations
// system-wide. The sentinel file's presence is the authoritative truth:
// state survives restarts and is shared with any process pointed at the
// same file.
type KillSwitch struct {
	path   string
	audit  *AuditLog
	logger logging.Logger
}

// NewKillSwitch creates a kill switch persisted at path. Toggles are
// recorded in the audit event log.
func NewKillSwitch(path string, audit *AuditLog, logger logging.Logger) *KillSwitch {
	return &KillSwitch{path: path, audit: audit, logger: logger}
}

// Active reports whether the kill switch is engaged. Derived from the
// sentinel file on every call, never from cached state.
func (k *KillSwitch) Active() bool {
	raw, err := os.ReadFile(k.path)
	if err != nil {
		return false
	}
	var state KillSwitchState
	if err := json.Unmarshal(raw, &state); err != nil {
		// An unreadable sentinel is treated as inactive, matching the
		// self-healing posture of the rest of the subsystem.
		k.logger.WithError(err).Warn("Unreadable kill switch sentinel, treating as inactive")
		return false
	}
	return state.Active
}

// State returns the current sentinel record, or an inactive zero state.
func (k *KillSwitch) State() KillSwitchState {
	raw, err := os.ReadFile(k.path)
	if err != nil {
		return KillSwitchState{Active: false}
	}
	var state KillSwitchState
	if err := json.Unmarshal(raw, &state); err != nil {
		return KillSwitchState{Active: false}
	}
	return state
}

// Activate engages the kill switch and persists the sentinel.
func (k *KillSwitch) Activate(reason string) error {
	state := KillSwitchState{
		Active:      true,
		ActivatedAt: time.Now().UTC(),
		Reason:      reason,
		ActivatedBy: "security_guard",
	}

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode kill switch state: %w", err)
	}
	if err := os.WriteFile(k.path, raw, 0o644); err != nil {
		return fmt.Errorf("write kill switch sentinel: %w", err)
	}

	k.logger.WithField("reason", reason).Warn("Kill switch activated")
	if err := k.audit.AppendEvent("KILL_SWITCH_ACTIVATED", map[string]any{
		"reason":    reason,
		"timestamp": state.ActivatedAt.Format(time.RFC3339),
	}); err != nil {
		k.logger.WithError(err).Error("Failed to audit kill switch activation")
	}
	return nil
}

// Deactivate removes the sentinel and unblocks guarded operations.
func (k *KillSwitch) Deactivate() error {
	if err := os.Remove(k.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove kill switch sentinel: %w", err)
	}

	k.logger.Info("Kill switch deactivated")
	if err := k.audit.AppendEvent("KILL_SWITCH_DEACTIVATED", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		k.logger.WithError(err).Error("Failed to audit kill switch deactivation")
	}
	return nil
}
