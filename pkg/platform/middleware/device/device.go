// Package device classifies clients from their User-Agent header.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const (
	Web     = "web"
	Mobile  = "mobile"
	Tablet  = "tablet"
	Bot     = "bot"
	Unknown = "unknown"
)

// Classify maps a User-Agent string onto the coarse device buckets used in
// analytics metadata.
func Classify(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return Unknown
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return Bot
	}
	platform := strings.ToLower(ua.Platform())
	if strings.Contains(platform, "ipad") || strings.Contains(strings.ToLower(userAgent), "tablet") {
		return Tablet
	}
	if ua.Mobile() {
		return Mobile
	}
	return Web
}
