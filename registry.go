package cotc

import (
	"fmt"
	"maps"
	"slices"
)

// Registry maps business use cases to the contract that governs them. It is fixed at construction
// and safe for concurrent use.
type Registry struct {
	contracts map[string]string
}

// NewRegistry copies contracts into a new Registry. Use cases and contract ids must be non-empty.
func NewRegistry(contracts map[string]string) (*Registry, error) {
	for useCase, contractID := range contracts {
		if useCase == "" {
			return nil, fmt.Errorf("empty use case for contract %q", contractID)
		}
		if contractID == "" {
			return nil, fmt.Errorf("empty contract id for use case %q", useCase)
		}
	}
	return &Registry{contracts: maps.Clone(contracts)}, nil
}

// Resolve returns the contract id for a use case, or an error matching ErrUnknownUseCase.
func (r *Registry) Resolve(useCase string) (string, error) {
	if r != nil {
		if contractID, ok := r.contracts[useCase]; ok {
			return contractID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUseCase, useCase)
}

// UseCases returns the registered use cases in sorted order.
func (r *Registry) UseCases() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.contracts))
}

// Len returns the number of registered use cases.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.contracts)
}
