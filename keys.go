package rediskit

import "strings"

// GenerateKey joins prefix and parts with ":". Collision avoidance relies
// entirely on callers keeping segment discipline.
//
//	GenerateKey("user", "42", "profile") == "user:42:profile"
func GenerateKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	var b strings.Builder
	b.Grow(len(prefix) + len(parts)) // at least the separators
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// ParseKey is the inverse of GenerateKey: split on ":".
func ParseKey(key string) []string {
	return strings.Split(key, ":")
}
