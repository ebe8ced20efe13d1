package providers

import "strings"

// ProviderRef identifies one configured model service: a provider name plus
// an optional credential alias. "openai:billing" resolves its API key from
// PROPRAG_OPENAI_KEY_BILLING, letting ingestion and query traffic run on
// separate keys.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList parses a pipe-separated provider list ("openai|mock").
// Pipes separate entries so ":" stays free for the key alias. Names are
// case-insensitive; an empty list falls back to the mock provider so the
// system stays runnable without any hosted service.
func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	out := make([]ProviderRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p}
		if strings.Contains(p, ":") {
			x := strings.SplitN(p, ":", 2)
			ref.Name = strings.ToLower(strings.TrimSpace(x[0]))
			ref.KeyAlias = strings.TrimSpace(x[1])
		} else {
			ref.Name = strings.ToLower(p)
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}
