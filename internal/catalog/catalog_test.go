package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(StateAwaitingTechnician))
	assert.True(t, IsValid(StateFinalized))
	assert.False(t, IsValid(State("TOWED")))
	assert.False(t, IsValid(State("")))
}

func TestParse(t *testing.T) {
	s, err := Parse("IN_MAINTENANCE")
	assert.NoError(t, err)
	assert.Equal(t, StateInMaintenance, s)

	_, err = Parse("in_maintenance")
	assert.Error(t, err)
}

func TestIsValidTransition(t *testing.T) {
	assert.True(t, IsValidTransition(StateAwaitingTechnician, StateAwaitingMechanic))
	assert.True(t, IsValidTransition(StateTripRestarting, StateFinalized))
	assert.False(t, IsValidTransition(StateAwaitingTechnician, StateFinalized))
	assert.False(t, IsValidTransition(StateFinalized, StateAwaitingTechnician))
}

func TestFinalizedIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StateFinalized))
	assert.Empty(t, ReachableFrom(StateFinalized))

	for _, s := range All() {
		if s == StateFinalized {
			continue
		}
		assert.False(t, IsTerminal(s), "state %s should not be terminal", s)
	}
}

func TestAllReturnsDeclarationOrder(t *testing.T) {
	all := All()
	assert.Len(t, all, 9)
	assert.Equal(t, StateAwaitingTechnician, all[0])
	assert.Equal(t, StateFinalized, all[len(all)-1])
	for i, s := range all {
		assert.Equal(t, i, Order(s))
	}
}

func TestEveryAdjacencyTargetIsKnown(t *testing.T) {
	for _, s := range All() {
		for _, next := range ReachableFrom(s) {
			assert.True(t, IsValid(next), "state %s reaches unknown state %s", s, next)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryInitial, CategoryOf(StateAwaitingTechnician))
	assert.Equal(t, CategoryTransfer, CategoryOf(StateTransferInProgress))
	assert.Equal(t, CategoryFinal, CategoryOf(StateFinalized))
}
