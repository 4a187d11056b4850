package instrumentation

import "strings"

// Cardinality helpers keep metric label values inside a known set.
// Unknown values collapse to StatusUnknown so a misbehaving model or
// a scanner hitting random URLs cannot create new time series.

var knownIntents = map[string]bool{
	"create": true,
	"edit":   true,
	"delete": true,
	"query":  true,
	"other":  true,
	"error":  true,
	"none":   true,
}

var knownOutcomes = map[string]bool{
	"success":            true,
	"unauthorized":       true,
	"resolution_failure": true,
	"missing_reference":  true,
	"missing_details":    true,
	"missing_window":     true,
	"gateway_failure":    true,
	"transport_failure":  true,
	"internal_failure":   true,
}

var knownRoutes = map[string]bool{
	"/":                 true,
	"/whatsapp":         true,
	"/auth":             true,
	"/oauth2callback":   true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
}

// BoundedLabel returns value if it is in allowed, otherwise StatusUnknown.
//
// Example:
//
//	BoundedLabel("create", knownIntents)   // "create"
//	BoundedLabel("reschedule", knownIntents) // "unknown"
func BoundedLabel(value string, allowed map[string]bool) string {
	if allowed[value] {
		return value
	}
	return StatusUnknown
}

// RoutePath maps a request path onto one of the served routes, ignoring a
// trailing slash. Anything else is reported as "other".
func RoutePath(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if knownRoutes[path] {
		return path
	}
	return "other"
}
