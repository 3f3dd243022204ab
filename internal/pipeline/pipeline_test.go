package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtriage/internal/ai"
	"mailtriage/internal/fewshot"
	"mailtriage/internal/model"
)

const poEmail = "From: Brian <brian@apex.com>\nSubject: Purchase Order PO-2025-781\n\nPlease find attached our PO..."

func defaultExamples(t *testing.T) []model.FewShotExample {
	t.Helper()
	bank, err := fewshot.Default()
	require.NoError(t, err)
	return bank.Select(3, fewshot.SelectFirst)
}

// scripted answers classification prompts with category and reply prompts with reply.
func scripted(category, reply string) *ai.MockClient {
	m := ai.NewMockClient()
	m.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, classificationInstruction) {
			return category, nil
		}
		return reply, nil
	}
	return m
}

func TestRunNewOrder(t *testing.T) {
	client := scripted("New Order Received", "Reasoning: The customer sent a PO.\nDraft Reply: Dear Brian,\n\nThank you for your order.")
	p := New(client, defaultExamples(t), Options{})

	res, err := p.Run(context.Background(), poEmail)
	require.NoError(t, err)

	assert.Equal(t, "New Order Received", res.Category)
	assert.Equal(t, "Dear Brian,\n\nThank you for your order.", res.DraftReply)
	assert.NotEqual(t, model.NoReplySentinel, res.DraftReply)
	assert.Equal(t, model.PriorityHigh, model.PriorityOf(res.Category))
	assert.Equal(t, 2, client.Calls())

	replyPrompt := client.Prompts()[1]
	assert.Contains(t, replyPrompt, "Email Category: New Order Received")
	assert.Contains(t, replyPrompt, "Purchase Order PO-2025-781")
}

func TestRunOtherSkipsReply(t *testing.T) {
	client := scripted("Other", "should never be used")
	p := New(client, defaultExamples(t), Options{})

	res, err := p.Run(context.Background(), "Subject: Newsletter\n\nOur summer sale starts now.")
	require.NoError(t, err)

	assert.Equal(t, model.CategoryOther, res.Category)
	assert.Equal(t, model.NoReplySentinel, res.DraftReply)
	assert.Equal(t, 1, client.Calls())
}

func TestRunOtherMatchIsExact(t *testing.T) {
	client := scripted("other", "Draft Reply: Thanks for reaching out.")
	p := New(client, nil, Options{})

	res, err := p.Run(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "other", res.Category)
	assert.Equal(t, "Thanks for reaching out.", res.DraftReply)
	assert.Equal(t, 2, client.Calls())
}

func TestRunKeepsUnknownCategory(t *testing.T) {
	client := scripted("Category: Invoice Query", "Draft Reply: We will check the invoice.")
	p := New(client, nil, Options{})

	res, err := p.Run(context.Background(), "Subject: Invoice 44\n\nWrong amount.")
	require.NoError(t, err)
	assert.Equal(t, "Invoice Query", res.Category)
	assert.Equal(t, model.PriorityLow, model.PriorityOf(res.Category))
	assert.Equal(t, "📄", model.EmojiOf(res.Category))
}

func TestClassificationPromptCarriesExamples(t *testing.T) {
	client := scripted("Other", "")
	p := New(client, defaultExamples(t), Options{})

	_, err := p.Run(context.Background(), poEmail)
	require.NoError(t, err)

	prompt := client.Prompts()[0]
	assert.Equal(t, 4, strings.Count(prompt, "Email:\n"))
	assert.Contains(t, prompt, "RFQ - Costing for Custom Sensor Assemblies")
	assert.Contains(t, prompt, "Request for Quote - Replacement Motor Looms")
	assert.Contains(t, prompt, "Purchase Order PO2025-095 for Sensor Assemblies")
	assert.NotContains(t, prompt, "Delivery Inquiry for PO-PW-1134")
	assert.True(t, strings.HasSuffix(prompt, "Purchase Order PO-2025-781\n\nPlease find attached our PO...\nCategory:"))
}

func TestRunPropagatesErrors(t *testing.T) {
	upstream := errors.New("quota exceeded")

	m := ai.NewMockClient()
	m.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", upstream
	}
	_, err := New(m, nil, Options{}).Run(context.Background(), "x")
	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "classification failed")

	failingReply := ai.NewMockClient()
	failingReply.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, classificationInstruction) {
			return "Quote Request", nil
		}
		return "", upstream
	}
	_, err = New(failingReply, nil, Options{}).Run(context.Background(), "x")
	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "reply generation failed")
}

func TestRunEmptyCompletion(t *testing.T) {
	_, err := New(scripted("  \n", ""), nil, Options{}).Run(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyCompletion)

	_, err = New(scripted("Quote Request", "Reasoning: hmm\nDraft Reply:   "), nil, Options{}).Run(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestRunHonorsCallTimeout(t *testing.T) {
	m := ai.NewMockClient()
	m.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	p := New(m, nil, Options{CallTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := p.Run(context.Background(), "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExamplesAreCopied(t *testing.T) {
	ex := []model.FewShotExample{{EmailText: "a", Category: "Other"}}
	p := New(ai.NewMockClient(), ex, Options{})
	ex[0].Category = "Changed"
	assert.Equal(t, "Other", p.Examples()[0].Category)
}
