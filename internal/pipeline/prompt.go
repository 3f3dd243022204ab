package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"mailtriage/internal/model"
)

const classificationInstruction = `You classify business emails for a manufacturing supplier.
Choose the most appropriate business category: Quote Request, New Order Received, Delivery Follow-up, or Other.
Respond with the category name only.`

const replyInstruction = `You write professional, helpful email replies for a manufacturing supplier.
Given the business category of an email and its full content, think about the sender's request, the tone
and the appropriate next steps, then write a reply appropriate for the category and content.

Respond in exactly this format:
Reasoning: <your step by step reasoning>
Draft Reply: <the complete reply email>`

const categoryField = "Category:"

var reDraftReply = regexp.MustCompile(`(?i)draft reply:`)

// BuildClassificationPrompt renders the instruction, the labeled examples and
// the email to classify, ending with an open Category field.
func BuildClassificationPrompt(emailText string, examples []model.FewShotExample) string {
	var sb strings.Builder
	sb.WriteString(classificationInstruction)
	sb.WriteString("\n\n---\n\n")

	for _, ex := range examples {
		fmt.Fprintf(&sb, "Email:\n%s\n%s %s\n\n---\n\n", strings.TrimSpace(ex.EmailText), categoryField, ex.Category)
	}

	fmt.Fprintf(&sb, "Email:\n%s\n%s", strings.TrimSpace(emailText), categoryField)
	return sb.String()
}

// BuildReplyPrompt asks for reasoning first and the draft reply last.
func BuildReplyPrompt(category, emailText string) string {
	var sb strings.Builder
	sb.WriteString(replyInstruction)
	sb.WriteString("\n\n---\n\n")
	fmt.Fprintf(&sb, "Email Category: %s\n\n", category)
	fmt.Fprintf(&sb, "Email Content:\n%s\n\n", strings.TrimSpace(emailText))
	sb.WriteString("Reasoning: Let's think step by step in order to")
	return sb.String()
}

// ParseCategory extracts the label from a classification response. The label
// is not clamped to the known categories.
func ParseCategory(response string) string {
	for _, line := range strings.Split(response, "\n") {
		line = trimLabel(line)
		if len(line) >= len(categoryField) && strings.EqualFold(line[:len(categoryField)], categoryField) {
			line = trimLabel(line[len(categoryField):])
		}
		if line != "" {
			return line
		}
	}
	return ""
}

func trimLabel(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\"'`*"))
}

// ParseDraftReply returns the text after the last "Draft Reply:" marker, or
// the whole response when there is no marker.
func ParseDraftReply(response string) string {
	marks := reDraftReply.FindAllStringIndex(response, -1)
	if len(marks) == 0 {
		return strings.TrimSpace(response)
	}
	return strings.TrimSpace(response[marks[len(marks)-1][1]:])
}
