package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchProbe struct {
	Name  Optional[string] `json:"name"`
	Count Optional[int]    `json:"count"`
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		nameField Optional[string]
		count     Optional[int]
	}{
		{
			name:    "absent fields",
			payload: `{}`,
		},
		{
			name:      "explicit null",
			payload:   `{"name": null}`,
			nameField: Optional[string]{Set: true, Null: true},
		},
		{
			name:      "values",
			payload:   `{"name": "Acme", "count": 3}`,
			nameField: Optional[string]{Set: true, Value: "Acme"},
			count:     Optional[int]{Set: true, Value: 3},
		},
		{
			name:      "empty string is a value",
			payload:   `{"name": ""}`,
			nameField: Optional[string]{Set: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var probe patchProbe
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &probe))
			assert.Equal(t, tt.nameField, probe.Name)
			assert.Equal(t, tt.count, probe.Count)
		})
	}
}

func TestOptional_UnmarshalJSON_TypeMismatch(t *testing.T) {
	var probe patchProbe
	err := json.Unmarshal([]byte(`{"count": "three"}`), &probe)
	assert.Error(t, err)
}

func TestOptional_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(patchProbe{Name: Some("Acme"), Count: Null[int]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "Acme", "count": null}`, string(out))
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusOnlineTest.Valid())
	assert.False(t, Status("online test").Valid())
	assert.False(t, Status("").Valid())

	assert.True(t, StatusOffer.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusInterview.Terminal())
}

func TestSource(t *testing.T) {
	assert.True(t, SourceCompanyWebsite.Valid())
	assert.False(t, Source("Twitter").Valid())
}
