// Package featureflags evaluates the optional behaviours configured through FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Known flags.
const (
	// RebuildHook posts to REBUILD_HOOK_URL after an admin publish.
	RebuildHook = "rebuild_hook"
	// ImageVariants stores a downscaled WebP next to uploaded images.
	ImageVariants = "image_variants"
	// PublicCache serves public reads from Redis and marks them cacheable.
	PublicCache = "public_cache"
)

// Defaults apply to known flags that FEATURE_FLAGS leaves unset.
var Defaults = map[string]string{
	RebuildHook:   "on",
	ImageVariants: "off",
	PublicCache:   "off",
}

// Manager evaluates flags from a comma-separated key=value list such as
// "rebuild_hook=on,image_variants=25%,public_cache=off".
type Manager struct {
	configured map[string]string
	effective  map[string]string
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	configured := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		configured[key] = value
	}

	effective := maps.Clone(Defaults)
	maps.Copy(effective, configured)
	return &Manager{configured: configured, effective: effective}
}

// Enabled reports whether name is on for subject. Values are on/true/1,
// off/false/0, or "N%" for a rollout bucketed deterministically by subject.
// Rollouts below 100% are off for an anonymous subject.
func (m *Manager) Enabled(name, subject string) bool {
	if m == nil {
		return false
	}
	value, ok := m.effective[normalize(name)]
	if !ok {
		return false
	}
	if on, ok := parseSwitch(value); ok {
		return on
	}

	pct, ok := parsePercent(value)
	switch {
	case !ok || pct <= 0:
		return false
	case pct >= 100:
		return true
	case subject == "":
		return false
	}
	return rolloutBucket(name, subject) < pct
}

// On reports whether name is on with no subject.
func (m *Manager) On(name string) bool {
	return m.Enabled(name, "")
}

// Names returns every known or configured flag in lexical order.
func (m *Manager) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.effective))
}

// Raw returns the values taken from FEATURE_FLAGS, without defaults.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.configured)
}

// Snapshot evaluates every flag for subject.
func (m *Manager) Snapshot(subject string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range m.Names() {
		out[name] = m.Enabled(name, subject)
	}
	return out
}

func parseSwitch(value string) (on, ok bool) {
	switch value {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

func parsePercent(value string) (int, bool) {
	raw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(raw)
	return pct, err == nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + subject))
	return int(h.Sum32() % 100)
}
