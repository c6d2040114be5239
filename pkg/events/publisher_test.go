package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishRunCreated(RunCreated{}))
	p.Close()
}

func TestRunCreatedPayload(t *testing.T) {
	event := RunCreated{
		Run: &model.DiagnosisRun{
			ID:        uuid.MustParse("0b7d4c1e-2f3a-4b5c-8d9e-0f1a2b3c4d5e"),
			Input:     "AUC dropped",
			Diagnosis: model.Diagnosis{Summary: "x"},
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Source: "fallback",
		Model:  "zephyr",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"run": {
			"id": "0b7d4c1e-2f3a-4b5c-8d9e-0f1a2b3c4d5e",
			"scenarioId": null,
			"input": "AUC dropped",
			"diagnosis": {"severity":"Medium","summary":"x","checks":[],"causes":[],"actions":[]},
			"createdAt": "2026-01-02T03:04:05Z"
		},
		"source": "fallback",
		"model": "zephyr"
	}`, string(data))
}
