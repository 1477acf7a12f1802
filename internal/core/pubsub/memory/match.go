package memory

import "strings"

// matchSubject reports whether subject is covered by pattern. Tokens are
// dot separated; "*" stands for exactly one token and a trailing ">" for
// one or more.
func matchSubject(pattern, subject string) bool {
	if pattern == "" || subject == "" {
		return false
	}

	for {
		pTok, pRest, pMore := strings.Cut(pattern, ".")
		sTok, sRest, sMore := strings.Cut(subject, ".")

		switch {
		case pTok == ">":
			return !pMore
		case pTok != "*" && pTok != sTok:
			return false
		case !pMore || !sMore:
			return pMore == sMore
		}
		pattern, subject = pRest, sRest
	}
}
