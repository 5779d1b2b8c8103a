package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailure_Is(t *testing.T) {
	tests := []struct {
		kind     domain.FailureKind
		sentinel error
	}{
		{domain.FailureCollaborator, domain.ErrCollaborator},
		{domain.FailureRoutingContract, domain.ErrRoutingContract},
		{domain.FailureProgressBound, domain.ErrProgressBound},
		{domain.FailureEmptySynthesis, domain.ErrEmptySynthesis},
		{domain.FailureInvariant, domain.ErrInvariant},
		{domain.FailureCanceled, domain.ErrCanceled},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("run: %w", domain.NewFailure(tt.kind, domain.AgentResearch, nil, "detail"))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.NotErrorIs(t, err, domain.ErrRunNotFound)
		})
	}
}

func TestFailure_UnwrapsCause(t *testing.T) {
	f := domain.NewFailure(domain.FailureCanceled, "", context.Canceled, "caller abandoned run")
	assert.ErrorIs(t, f, context.Canceled)
	assert.ErrorIs(t, f, domain.ErrCanceled)
	assert.Equal(t, "canceled: caller abandoned run: context canceled", f.Error())

	got, ok := domain.AsFailure(fmt.Errorf("wrapped: %w", f))
	require.True(t, ok)
	assert.Same(t, f, got)

	_, ok = domain.AsFailure(errors.New("plain"))
	assert.False(t, ok)
}
