package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClassification(t *testing.T) {
	c, ok := ParseClassification("needs_review")
	assert.True(t, ok)
	assert.Equal(t, ClassificationNeedsReview, c)

	_, ok = ParseClassification("angry")
	assert.False(t, ok)
}

func TestClassificationSkipped(t *testing.T) {
	assert.True(t, ClassificationSpam.Skipped())
	assert.True(t, ClassificationPromotional.Skipped())
	assert.False(t, ClassificationNegative.Skipped())
	assert.False(t, ClassificationError.Skipped())
}

func TestAuditRecordRow_MatchesColumns(t *testing.T) {
	r := AuditRecord{
		SRNo:                3,
		SenderEmail:         "a@example.com",
		RequiresHumanReview: true,
		ResponseStatus:      StatusDrafted,
	}
	row := r.Row()
	assert.Len(t, row, len(AuditColumns))
	assert.Equal(t, "3", row[0])
	assert.Equal(t, "a@example.com", row[2])
	assert.Equal(t, "True", row[10])
	assert.Equal(t, "Drafted", row[11])
}
