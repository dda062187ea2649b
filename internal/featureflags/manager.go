// Package featureflags evaluates runtime feature toggles from configuration.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// ImageUploads gates POST /api/recipes/:id/image. On unless configured otherwise.
	ImageUploads = "image_uploads"
	// Realtime gates the catalog websocket. On unless configured otherwise.
	Realtime = "realtime"
)

var defaults = map[string]bool{
	ImageUploads: true,
	Realtime:     true,
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "image_uploads=off,realtime=25%"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value := normalize(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled reports whether a flag is on for subject (a user id, or "" when anonymous).
// Unconfigured flags fall back to their built-in default.
// Supported values: on/true/1, off/false/0 and N% (deterministic rollout per subject).
func (m *Manager) Enabled(name, subject string) bool {
	return m.EnabledOr(name, subject, defaults[normalize(name)])
}

// EnabledOr is Enabled with an explicit fallback for unconfigured flags.
func (m *Manager) EnabledOr(name, subject string, fallback bool) bool {
	if m == nil {
		return fallback
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return fallback
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return fallback
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if subject == "" {
		return false
	}
	return rolloutBucket(name, subject) < pct
}

// Snapshot returns evaluated flag status for one subject, including defaults.
func (m *Manager) Snapshot(subject string) map[string]bool {
	out := make(map[string]bool, len(defaults))
	for name := range defaults {
		out[name] = m.Enabled(name, subject)
	}
	if m != nil {
		for name := range m.flags {
			out[name] = m.Enabled(name, subject)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + subject))
	return int(h.Sum32() % 100)
}
