package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
)

func strPtr(s string) *string {
	return &s
}

func percentMapping(id string, base *string) salary.ComponentMapping {
	return salary.ComponentMapping{
		ComponentID:             id,
		ComponentName:           id,
		Kind:                    salary.ComponentKindEarning,
		CalcType:                salary.CalcTypePercentage,
		PercentageOfComponentID: base,
	}
}

func TestBuildGraph_InvalidReference(t *testing.T) {
	t.Parallel()

	mappings := []salary.ComponentMapping{
		percentMapping("a", strPtr("missing")),
	}

	_, err := buildGraph(mappings)
	assert.ErrorIs(t, err, salary.ErrInvalidReference)
}

func TestTopologicalOrder_BaseBeforeDependent(t *testing.T) {
	t.Parallel()

	mappings := []salary.ComponentMapping{
		percentMapping("hra", strPtr("basic")),
		percentMapping("bonus", strPtr("hra")),
		percentMapping("basic", nil),
	}

	adj, err := buildGraph(mappings)
	require.NoError(t, err)

	order, err := topologicalOrder(adj)
	require.NoError(t, err)
	require.Len(t, order, 3)

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	assert.Less(t, position["basic"], position["hra"])
	assert.Less(t, position["hra"], position["bonus"])
}

func TestTopologicalOrder_Deterministic(t *testing.T) {
	t.Parallel()

	mappings := []salary.ComponentMapping{
		percentMapping("c", nil),
		percentMapping("a", nil),
		percentMapping("b", nil),
	}

	adj, err := buildGraph(mappings)
	require.NoError(t, err)

	first, err := topologicalOrder(adj)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := topologicalOrder(adj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTopologicalOrder_CycleDetected(t *testing.T) {
	t.Parallel()

	mappings := []salary.ComponentMapping{
		percentMapping("a", strPtr("b")),
		percentMapping("b", strPtr("a")),
	}

	adj, err := buildGraph(mappings)
	require.NoError(t, err)

	_, err = topologicalOrder(adj)
	require.ErrorIs(t, err, salary.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "->")
}

func TestTopologicalOrder_SelfCycle(t *testing.T) {
	t.Parallel()

	mappings := []salary.ComponentMapping{
		percentMapping("a", strPtr("a")),
	}

	adj, err := buildGraph(mappings)
	require.NoError(t, err)

	_, err = topologicalOrder(adj)
	assert.ErrorIs(t, err, salary.ErrCyclicDependency)
}
