package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fable/pkg/domain"
)

// RunFlowStoreContract runs a suite of tests verifying that a FlowStore
// implementation adheres to the interface contract. Adapter test packages
// call it with a freshly constructed store.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	ctx := context.Background()
	flowID := "contract-flow-" + time.Now().Format("20060102150405")

	def := &domain.FlowDefinition{
		ID:          flowID,
		Title:       "Contract",
		StartNodeID: "start",
		InitialState: map[string]any{
			"foo":   "bar",
			"count": 42,
		},
		Nodes: []domain.Node{
			{ID: "start", Outlets: []domain.Outlet{{ID: "o1", To: "end"}}},
			{ID: "end"},
		},
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, def)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, def.ID, loaded.ID)
		assert.Equal(t, def.StartNodeID, loaded.StartNodeID)
		assert.Len(t, loaded.Nodes, 2)
		assert.Equal(t, "bar", loaded.InitialState["foo"])
		// JSON persistence may widen ints to floats; existence is the contract.
		assert.NotNil(t, loaded.InitialState["count"])
	})

	t.Run("Load isolation", func(t *testing.T) {
		first, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		first.InitialState["foo"] = "mutated"

		second, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		assert.Equal(t, "bar", second.InitialState["foo"], "loaded definitions must not share state")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, def))

		err := store.Delete(ctx, flowID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, "Load after Delete should return ErrFlowNotFound")
	})

	t.Run("List", func(t *testing.T) {
		a := &domain.FlowDefinition{ID: flowID + "-1", StartNodeID: "start", Nodes: []domain.Node{{ID: "start"}}}
		b := &domain.FlowDefinition{ID: flowID + "-2", StartNodeID: "start", Nodes: []domain.Node{{ID: "start"}}}
		_ = store.Save(ctx, a)
		_ = store.Save(ctx, b)

		defer func() {
			_ = store.Delete(ctx, a.ID)
			_ = store.Delete(ctx, b.ID)
		}()

		flows, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, flows, a.ID)
		assert.Contains(t, flows, b.ID)
	})
}
