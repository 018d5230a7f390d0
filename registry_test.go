package cotc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name      string
		contracts map[string]string
		wantErr   bool
		wantLen   int
	}{
		{
			name:      "nil map",
			contracts: nil,
			wantLen:   0,
		},
		{
			name: "valid contracts",
			contracts: map[string]string{
				"financial_content":      "fin-content-001",
				"customer_communication": "customer-comm-001",
			},
			wantLen: 2,
		},
		{
			name:      "empty use case",
			contracts: map[string]string{"": "fin-content-001"},
			wantErr:   true,
		},
		{
			name:      "empty contract id",
			contracts: map[string]string{"financial_content": ""},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.contracts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, r.Len())
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	contracts := map[string]string{
		"financial_content": "fin-content-001",
		"healthcare":        "health-001",
	}
	r, err := NewRegistry(contracts)
	require.NoError(t, err)

	id, err := r.Resolve("financial_content")
	require.NoError(t, err)
	assert.Equal(t, "fin-content-001", id)

	_, err = r.Resolve("Financial_Content")
	assert.ErrorIs(t, err, ErrUnknownUseCase, "use cases are case sensitive")

	_, err = r.Resolve("")
	assert.ErrorIs(t, err, ErrUnknownUseCase)

	// The registry does not follow changes to the map it was built from.
	contracts["financial_content"] = "fin-content-002"
	contracts["legal"] = "legal-001"
	id, err = r.Resolve("financial_content")
	require.NoError(t, err)
	assert.Equal(t, "fin-content-001", id)
	_, err = r.Resolve("legal")
	assert.ErrorIs(t, err, ErrUnknownUseCase)
}

func TestRegistry_UseCases(t *testing.T) {
	r, err := NewRegistry(map[string]string{
		"marketing":         "mkt-001",
		"financial_content": "fin-content-001",
		"healthcare":        "health-001",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"financial_content", "healthcare", "marketing"}, r.UseCases())
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry

	_, err := r.Resolve("financial_content")
	assert.ErrorIs(t, err, ErrUnknownUseCase)
	assert.Nil(t, r.UseCases())
	assert.Zero(t, r.Len())
}
