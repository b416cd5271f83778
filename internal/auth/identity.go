package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ResolveWebID determines the current identity. An explicitly configured
// WebID wins; otherwise the Solid-OIDC bearer token is inspected for its
// `webid` claim (falling back to a URL-shaped `sub`). The token is parsed
// without signature verification: validating it is the pod server's job,
// the client only needs to know who it is acting as.
//
// An empty result is not an error — it means the user is logged out, and
// mutating operations fail their identity precondition instead.
func ResolveWebID(configuredWebID, bearerToken string) string {
	if configuredWebID != "" {
		return configuredWebID
	}
	if bearerToken == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(bearerToken, claims); err != nil {
		return ""
	}

	if webID, ok := claims["webid"].(string); ok && webID != "" {
		return webID
	}
	if sub, ok := claims["sub"].(string); ok && isHTTPURI(sub) {
		return sub
	}
	return ""
}

func isHTTPURI(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
