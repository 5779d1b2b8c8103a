package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/foreman/pkg/adapters/memory"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns)
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	state := domain.NewState("r1", "Email jane.doe@example.com the summary")
	state.Facts = append(state.Facts, domain.Fact{Source: "s", Snippet: "key sk-abcdefghijklmnopqrstuv leaked"})
	state.Draft = "Contact ops@example.org"
	state.Record(domain.AgentSupervisor, domain.OutcomeOK, "routing for jane.doe@example.com")

	require.NoError(t, store.Save(ctx, "r1", state))

	assert.Equal(t, "Email jane.doe@example.com the summary", state.Query, "caller state is untouched")

	stored, err := underlying.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Email *** the summary", stored.Query)
	assert.Equal(t, "key *** leaked", stored.Facts[0].Snippet)
	assert.Equal(t, "Contact ***", stored.Draft)
	assert.Equal(t, "routing for ***", stored.History[0].Summary)
}

func TestRedactMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_OrderIsOutermostFirst(t *testing.T) {
	underlying := memory.NewStore()
	redact, err := middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns)
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, redact, encrypt)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "r1", domain.NewState("r1", "mail me at a@b.io")))

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "mail me at ***", loaded.Query)
}
