// Package featureflags evaluates FEATURE_FLAGS rules such as
// "listing_snapshots=on,recommended_feed=25%".
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	// ListingSnapshots extends profile snapshot propagation to listings.
	ListingSnapshots = "listing_snapshots"
	// RecommendedFeed lets users with a recommended preference get ranked
	// feeds. Turning it off serves everyone the latest feed.
	RecommendedFeed = "recommended_feed"
)

// Defaults apply when a known flag is absent from the configuration.
var Defaults = map[string]bool{
	ListingSnapshots: false,
	RecommendedFeed:  true,
}

// rule is one parsed flag value. percent is -1 for plain on/off rules.
type rule struct {
	raw     string
	on      bool
	percent int
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, on: true, percent: -1}, true
	case "off", "false", "0":
		return rule{raw: value, percent: -1}, true
	}
	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return rule{}, false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return rule{}, false
	}
	return rule{raw: value, percent: min(max(pct, 0), 100)}, true
}

// Manager holds the parsed rules. A nil *Manager evaluates every flag to
// its default.
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated list of name=value pairs. Values are
// on/true/1, off/false/0 or N% for a deterministic per-user rollout.
// Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			rules[name] = r
		}
	}
	return &Manager{rules: rules}
}

// Enabled evaluates name for userID. Percentage rollouts never include
// anonymous callers unless set to 100%.
func (m *Manager) Enabled(name string, userID uint) bool {
	name = normalize(name)
	var r rule
	ok := false
	if m != nil {
		r, ok = m.rules[name]
	}
	if !ok {
		return Defaults[name]
	}

	switch {
	case r.percent < 0:
		return r.on
	case r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Raw returns the configured values by name.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Names lists configured and known flags, sorted.
func (m *Manager) Names() []string {
	seen := make(map[string]bool, len(Defaults))
	for name := range Defaults {
		seen[name] = true
	}
	if m != nil {
		for name := range m.rules {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot evaluates every configured and known flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	names := m.Names()
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
