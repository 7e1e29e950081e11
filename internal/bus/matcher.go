package bus

import "strings"

// subjectMatch implements NATS-style subject wildcard matching: "*"
// matches exactly one dot-delimited token, ">" matches one-or-more
// trailing tokens and must be the pattern's last token.
func subjectMatch(pattern, subject string) bool {
	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, pt := range pTokens {
		if pt == ">" {
			return i < len(sTokens)
		}
		if i >= len(sTokens) {
			return false
		}
		if pt == "*" {
			continue
		}
		if pt != sTokens[i] {
			return false
		}
	}
	return len(pTokens) == len(sTokens)
}
