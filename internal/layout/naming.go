package layout

import "strconv"

func hexUint64(v uint64) string {
	return strconv.FormatUint(v, 16)
}

func uitoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

// sanitizeIdentifier rewrites s so it is safe to use as a JVM method
// name: WASM export names allow characters (like '.', '-', ' ') that,
// while technically legal in a JVM method name, are a needless footgun
// for tooling built on top of the generated classes (debuggers,
// decompilers, IDE "go to declaration"). Anything outside
// [A-Za-z0-9_$] becomes '_'; a name starting with a digit is prefixed.
func sanitizeIdentifier(s string) string {
	out := make([]byte, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '$':
			out = append(out, c)
		case c >= '0' && c <= '9':
			if len(out) == 0 {
				out = append(out, '_')
			}
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "_"
	}
	return string(out)
}
