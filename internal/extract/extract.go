// Package extract pulls header fields out of pasted email text.
package extract

import (
	"regexp"
	"strings"

	"mailtriage/internal/model"
)

var (
	reSubject     = regexp.MustCompile(`(?i)Subject: (.*)`)
	reFrom        = regexp.MustCompile(`(?i)From: (.*)`)
	reAngleAddr   = regexp.MustCompile(`<([^>]+)>`)
	reBareAddress = regexp.MustCompile(`[\w.\-]+@[\w.\-]+`)
)

// ExtractSubject returns the text after the first "Subject: " marker, or
// model.NoSubject when there is none.
func ExtractSubject(emailText string) string {
	m := reSubject.FindStringSubmatch(emailText)
	if m == nil {
		return model.NoSubject
	}
	return strings.TrimSpace(m[1])
}

// ExtractSenderInfo returns the sender name and address from the first
// "From: " line. It understands `Name <addr>`, `"Name" <addr>`, `addr` and
// `Name addr` shapes.
func ExtractSenderInfo(emailText string) (name, email string) {
	m := reFrom.FindStringSubmatch(emailText)
	if m == nil {
		return model.UnknownSender, model.NoEmail
	}
	fromLine := strings.TrimSpace(m[1])

	if am := reAngleAddr.FindStringSubmatch(fromLine); am != nil {
		return cleanName(strings.Replace(fromLine, am[0], "", 1)), strings.TrimSpace(am[1])
	}

	if addr := reBareAddress.FindString(fromLine); addr != "" {
		return cleanName(strings.Replace(fromLine, addr, "", 1)), addr
	}

	return cleanName(fromLine), model.NoEmail
}

func cleanName(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	if s == "" {
		return model.UnknownSender
	}
	return s
}
