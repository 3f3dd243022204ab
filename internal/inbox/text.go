package inbox

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ToEmailText renders a raw message in the "From: / Subject: / body" shape
// the triage service reads.
func ToEmailText(raw []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse message: %w", err)
	}

	body := strings.TrimSpace(env.Text)
	if body == "" && env.HTML != "" {
		body, err = HTMLToText(env.HTML)
		if err != nil {
			return "", err
		}
	}

	var b strings.Builder
	if from := strings.TrimSpace(env.GetHeader("From")); from != "" {
		fmt.Fprintf(&b, "From: %s\n", from)
	}
	if subject := strings.TrimSpace(env.GetHeader("Subject")); subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", subject)
	}
	b.WriteString("\n")
	b.WriteString(body)
	return b.String(), nil
}

// HTMLToText flattens an HTML body, one line per block element.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html body: %w", err)
	}
	doc.Find("script,style,head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p,div,tr,li,h1,h2,h3,h4,h5,h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text), nil
}
