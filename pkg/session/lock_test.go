package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, runID string, state *domain.State) error { return nil }
func (nopStore) Load(ctx context.Context, runID string) (*domain.State, error) {
	return nil, domain.ErrRunNotFound
}
func (nopStore) Delete(ctx context.Context, runID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)     { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		id := fmt.Sprintf("run-%d", i)
		_ = mgr.Save(ctx, id, domain.NewState(id, "q"))
		_ = mgr.Delete(ctx, id)
	}

	assert.Zero(t, mgr.activeLocks(), "lock entries must be released once unused")
}
