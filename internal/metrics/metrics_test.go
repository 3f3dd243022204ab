package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEmailProcessed(t *testing.T) {
	before := testutil.ToFloat64(EmailProcessedCount.WithLabelValues("success"))
	beforeCat := testutil.ToFloat64(EmailCategoryCount.WithLabelValues("Quote Request"))
	beforeFailed := testutil.ToFloat64(EmailProcessedCount.WithLabelValues("failed"))

	RecordEmailProcessed("Quote Request", true, 20*time.Millisecond)
	RecordEmailProcessed("Error", false, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(EmailProcessedCount.WithLabelValues("success")))
	assert.Equal(t, beforeCat+1, testutil.ToFloat64(EmailCategoryCount.WithLabelValues("Quote Request")))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(EmailProcessedCount.WithLabelValues("failed")))
}

func TestRecordEmailProcessedFoldsUnknownCategories(t *testing.T) {
	beforeUnknown := testutil.ToFloat64(EmailCategoryCount.WithLabelValues(UnknownCategory))
	before := testutil.CollectAndCount(EmailCategoryCount)

	for i := 0; i < 50; i++ {
		RecordEmailProcessed(fmt.Sprintf("Invented Label %d", i), true, time.Millisecond)
	}

	assert.Equal(t, before, testutil.CollectAndCount(EmailCategoryCount))
	assert.Equal(t, beforeUnknown+50, testutil.ToFloat64(EmailCategoryCount.WithLabelValues(UnknownCategory)))
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Quote Request", categoryLabel("Quote Request"))
	assert.Equal(t, "Other", categoryLabel("Other"))
	assert.Equal(t, UnknownCategory, categoryLabel("quote request"))
	assert.Equal(t, UnknownCategory, categoryLabel(""))
}

func TestAddInboxMessagesIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(InboxImportCount.WithLabelValues("skipped"))
	AddInboxMessages("skipped", 0)
	AddInboxMessages("skipped", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(InboxImportCount.WithLabelValues("skipped")))
}
