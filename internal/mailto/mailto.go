// Package mailto builds reply subjects and mailto: links for draft replies.
package mailto

import (
	"net/url"
	"strings"

	"mailtriage/internal/model"
)

// ReplySubject prefixes subject with "Re: " unless it already has one.
func ReplySubject(subject string) string {
	if subject == "" || subject == model.NoSubject {
		return "Re: Your Email"
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// Link returns a mailto: URL with the subject and body percent-encoded, or
// "#" when there is no usable address.
func Link(email, subject, body string) string {
	if email == "" || email == model.NoEmail {
		return "#"
	}
	return "mailto:" + email + "?subject=" + escape(subject) + "&body=" + escape(body)
}

// ReplyLink is Link for a stored row, or "#" when the row cannot be replied to.
func ReplyLink(e *model.ProcessedEmail) string {
	if !e.CanReply() {
		return "#"
	}
	return Link(e.Email, ReplySubject(e.Subject), e.DraftReply)
}

// escape percent-encodes s with spaces as %20, which mail clients expect.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
