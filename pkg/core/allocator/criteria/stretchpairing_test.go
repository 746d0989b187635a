package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStretchPairingCriterion_Name(t *testing.T) {
	criterion := NewStretchPairingCriterion(1.0)
	assert.Equal(t, "StretchPairing", criterion.Name())
	assert.Equal(t, 1.0, criterion.AffinityWeight())
}

func TestStretchPairingCriterion_CalculateAffinity(t *testing.T) {
	criterion := NewStretchPairingCriterion(100)
	state := newTestState(t, provider("ALPHA, ANN", 10, 4))
	alpha := state.Provider("ALPHA, ANN")

	// Nothing worked in week 1 yet
	assert.Equal(t, 0.0, criterion.CalculateAffinity(state, candidate(state, "ALPHA, ANN", weekend1, "Cooper")))

	state.Place(alpha, week1, "Cooper")

	// Same site as the weekday completes the stretch
	assert.Equal(t, 1.0, criterion.CalculateAffinity(state, candidate(state, "ALPHA, ANN", weekend1, "Cooper")))

	// A different site breaks it
	assert.Equal(t, -0.5, criterion.CalculateAffinity(state, candidate(state, "ALPHA, ANN", weekend1, "Mullica Hill")))

	// Week 2 has no weekday yet
	assert.Equal(t, 0.0, criterion.CalculateAffinity(state, candidate(state, "ALPHA, ANN", weekend2, "Cooper")))

	// Weekday periods are never scored
	assert.Equal(t, 0.0, criterion.CalculateAffinity(state, candidate(state, "ALPHA, ANN", week2, "Cooper")))
}
