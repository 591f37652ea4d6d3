package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mailtriage/contracts/mq"
)

func TestTriagedHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var flagged []string
	h := NewTriagedHandler(zap.New(core), func(p mq.EmailTriagedPayload) { flagged = append(flagged, p.EmailID) })

	for _, p := range []mq.EmailTriagedPayload{
		{EmailID: "e1", RequiresHumanReview: true, ResponseStatus: "Drafted"},
		{EmailID: "e2", ResponseStatus: "Error During Processing", ProcessingError: "Quota exceeded"},
	} {
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		require.NoError(t, h.Handle(context.Background(), raw))
	}

	assert.Equal(t, []string{"e1"}, flagged)
	assert.Equal(t, 1, logs.FilterMessage("Email triaged").Len())
	assert.Equal(t, 1, logs.FilterMessage("Email triaged with error").Len())
}

func TestTriagedHandler_RejectsBadPayload(t *testing.T) {
	h := NewTriagedHandler(zap.NewNop(), nil)

	assert.Error(t, h.Handle(context.Background(), json.RawMessage(`not json`)))
	assert.Error(t, h.Handle(context.Background(), json.RawMessage(`{"sr_no":1}`)))
}
