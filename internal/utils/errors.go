package utils

// API error codes used across handlers.
const (
	CodeConfigError    = "CONFIG_ERROR"
	CodeUpstreamAuth   = "UPSTREAM_AUTH_ERROR"
	CodeUpstreamHTTP   = "UPSTREAM_HTTP_ERROR"
	CodeUpstreamParse  = "UPSTREAM_PARSE_ERROR"
	CodeMirrorAccess   = "MIRROR_ACCESS_ERROR"
	CodeSyncInProgress = "SYNC_IN_PROGRESS"
	CodeInternal       = "INTERNAL_ERROR"
)
