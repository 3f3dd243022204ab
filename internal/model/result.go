package model

import "strconv"

// ProcessResult is what the processing engine hands back for one email.
type ProcessResult struct {
	Category   string `json:"category"`
	DraftReply string `json:"draft_reply"`
	Success    bool   `json:"success"`
	RunID      string `json:"run_id,omitempty"`
}

// FewShotExample is a labeled email used to condition classification.
type FewShotExample struct {
	EmailText string `yaml:"email_text" json:"email_text"`
	Category  string `yaml:"category" json:"category"`
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
