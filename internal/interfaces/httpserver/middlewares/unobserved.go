package middlewares

// unobservedPaths are health checks and the metrics scrape, kept out of request metrics and traces.
var unobservedPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

func isUnobserved(path string) bool {
	return unobservedPaths[path]
}
