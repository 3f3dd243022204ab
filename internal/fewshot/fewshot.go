// Package fewshot holds the labeled example bank that conditions email
// classification.
package fewshot

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mailtriage/internal/model"
)

//go:embed examples.yaml
var defaultBank []byte

var ErrEmptyBank = errors.New("example bank is empty")

// Selector picks at most k examples from bank.
type Selector func(bank []model.FewShotExample, k int) []model.FewShotExample

// SelectFirst returns the first k examples, clamped to the bank size.
func SelectFirst(bank []model.FewShotExample, k int) []model.FewShotExample {
	if k <= 0 {
		return nil
	}
	if k > len(bank) {
		k = len(bank)
	}
	out := make([]model.FewShotExample, k)
	copy(out, bank[:k])
	return out
}

// Bank is an immutable, ordered set of labeled examples.
type Bank struct {
	examples []model.FewShotExample
}

// Default returns the built-in bank.
func Default() (*Bank, error) {
	return Parse(defaultBank)
}

// Load reads a bank from path, or returns the built-in bank when path is empty.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read example bank %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML list of {email_text, category} entries.
func Parse(data []byte) (*Bank, error) {
	var examples []model.FewShotExample
	if err := yaml.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("decode example bank: %w", err)
	}
	if len(examples) == 0 {
		return nil, ErrEmptyBank
	}
	for i, ex := range examples {
		if strings.TrimSpace(ex.EmailText) == "" {
			return nil, fmt.Errorf("example %d: email_text is empty", i+1)
		}
		if strings.TrimSpace(ex.Category) == "" {
			return nil, fmt.Errorf("example %d: category is empty", i+1)
		}
	}
	return &Bank{examples: examples}, nil
}

func (b *Bank) Len() int {
	return len(b.examples)
}

// Examples returns a copy of the bank in order.
func (b *Bank) Examples() []model.FewShotExample {
	out := make([]model.FewShotExample, len(b.examples))
	copy(out, b.examples)
	return out
}

// Select applies sel to the bank. A nil selector means SelectFirst.
func (b *Bank) Select(k int, sel Selector) []model.FewShotExample {
	if sel == nil {
		sel = SelectFirst
	}
	return sel(b.Examples(), k)
}
