package common

import "strings"

// ParseBearer extracts the token from an Authorization value of the form
// "Bearer <token>". The scheme is matched case-insensitively. ok is false
// for a missing scheme, another scheme, or an empty token.
func ParseBearer(header string) (token string, ok bool) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(rest)
	if token == "" {
		return "", false
	}
	return token, true
}
