// Package bot answers chat lookups: it parses commands, builds reports and
// replies, over long polling or a webhook.
package bot

import (
	"regexp"
	"strings"
)

// Kind is a recognized chat command.
type Kind int

const (
	KindNone Kind = iota
	KindCheck
	KindHelp
)

var (
	checkRx = regexp.MustCompile(`(?is)^\s*/?check(?:@\S+)?(?:\s+(.*))?$`)
	helpRx  = regexp.MustCompile(`(?i)^\s*/(?:start|help)(?:@\S+)?\s*$`)
)

// ParseCommand recognizes "/check <phone>", "/check@bot <phone>" and plain
// "check <phone>", case-insensitively, plus /start and /help. For checks
// the argument is returned trimmed and may be empty.
func ParseCommand(text string) (Kind, string) {
	if m := checkRx.FindStringSubmatch(text); m != nil {
		return KindCheck, strings.TrimSpace(m[1])
	}
	if helpRx.MatchString(text) {
		return KindHelp, ""
	}
	return KindNone, ""
}
