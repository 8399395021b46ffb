package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// OK writes a success payload. Every payload carries "ok": true; endpoint
// specific fields come from extra. Responses are plain JSON objects (no
// envelope) because the endpoints are opened directly in a browser.
func OK(c *gin.Context, extra gin.H) {
	body := gin.H{"ok": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(200, body)
}

// Fail writes an error payload with the taxonomy code and, when present,
// the paging debug trail.
func Fail(c *gin.Context, status int, code, message string, debug []string) {
	body := gin.H{
		"ok":    false,
		"code":  code,
		"error": message,
	}
	if len(debug) > 0 {
		body["debug"] = debug
	}
	c.JSON(status, body)
}

// BoolParam interprets a query parameter as a boolean flag.
func BoolParam(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// TailStrings returns the trailing n entries of a diagnostic slice.
func TailStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
