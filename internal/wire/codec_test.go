package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeUsesWireFieldNames(t *testing.T) {
	msg, err := Encode(&SubmitRequest{
		RequestID:  "req-1",
		Content:    "hello",
		ContractID: "fin-content-001",
		Metadata:   map[string]any{"risk_level": "high"},
		Priority:   "high",
		Requester: Requester{
			System:    "enterprise_ai_platform",
			UseCase:   "financial_content",
			Timestamp: "2024-01-01T00:00:00Z",
		},
	})
	require.NoError(t, err)

	fields := msg.GetFields()
	assert.Equal(t, "fin-content-001", fields["contractId"].GetStringValue())
	assert.Equal(t, "req-1", fields["requestId"].GetStringValue())
	assert.Equal(t, "high", fields["metadata"].GetStructValue().GetFields()["risk_level"].GetStringValue())
	assert.Equal(t, "financial_content", fields["requester"].GetStructValue().GetFields()["useCase"].GetStringValue())
}

func TestEncodeRejectsUnencodableMetadata(t *testing.T) {
	_, err := Encode(&SubmitRequest{Metadata: map[string]any{"ch": make(chan int)}})
	assert.Error(t, err)
}

func TestDecodeResult(t *testing.T) {
	msg, err := structpb.NewStruct(map[string]any{
		"validationId":        "val-1",
		"state":               "completed",
		"overallResult":       "approved",
		"confidence":          0.93,
		"humanReviewRequired": false,
		"totalProcessingTime": 1500,
		"validatorResults": []any{
			map[string]any{
				"validatorName": "pii",
				"findings": []any{
					map[string]any{"type": "pii", "severity": "low", "category": "privacy", "description": "email address"},
				},
			},
		},
	})
	require.NoError(t, err)

	var res Result
	require.NoError(t, Decode(msg, &res))
	assert.Equal(t, "val-1", res.ValidationID)
	assert.Equal(t, StateCompleted, res.State)
	assert.True(t, res.State.Done())
	assert.InDelta(t, 0.93, res.Confidence, 1e-9)
	assert.Equal(t, float64(1500), res.TotalProcessingTime)
	require.Len(t, res.ValidatorResults, 1)
	assert.Equal(t, "email address", res.ValidatorResults[0].Findings[0].Description)
}

func TestDecodeNil(t *testing.T) {
	var res Result
	assert.ErrorIs(t, Decode(nil, &res), ErrEmptyMessage)
}

func TestStateDone(t *testing.T) {
	assert.False(t, StatePending.Done())
	assert.False(t, StateRunning.Done())
	assert.True(t, StateCompleted.Done())
	assert.True(t, StateFailed.Done())
	assert.True(t, StateCanceled.Done())
}
