package service

import "strings"

// AgentFilter recognises link-preview crawlers by their User-Agent so they
// never consume one-shot downloads. Matching is case-insensitive.
type AgentFilter struct {
	prefixes   []string
	substrings []string
}

func NewAgentFilter(prefixes, substrings []string) *AgentFilter {
	return &AgentFilter{
		prefixes:   lowerAll(prefixes),
		substrings: lowerAll(substrings),
	}
}

func (f *AgentFilter) Blocked(userAgent string) bool {
	if f == nil || userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, p := range f.prefixes {
		if strings.HasPrefix(ua, p) {
			return true
		}
	}
	for _, s := range f.substrings {
		if strings.Contains(ua, s) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
