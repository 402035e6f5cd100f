package colreg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignRoles(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name         string
		a, b         Contact
		enc          Encounter
		wantA, wantB Role
	}{
		{"head-on both give way", contact(0, 0, 45), contact(5, 5, 225), HeadOn, GiveWay, GiveWay},
		{"crossing other on my starboard", contact(0, 0, 0), contact(3, -3, 90), Crossing, GiveWay, StandOn},
		{"crossing me on other's starboard", contact(3, -3, 90), contact(0, 0, 0), Crossing, StandOn, GiveWay},
		{"crossing ambiguous falls back to a", contact(0, 0, 0), contact(3, 3, 180), Crossing, GiveWay, StandOn},
		{"overtaking a is ahead", contact(0, 0, 0), contact(-2, 0.1, 0), Overtaking, StandOn, GiveWay},
		{"overtaking a is astern", contact(-2, 0.1, 0), contact(0, 0, 0), Overtaking, GiveWay, StandOn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.enc, Classify(tt.a, tt.b, th))
			ra, rb := AssignRoles(tt.a, tt.b, tt.enc, th)
			assert.Equal(t, tt.wantA, ra)
			assert.Equal(t, tt.wantB, rb)
		})
	}
}

func TestAssignRoles_SwapIsConsistent(t *testing.T) {
	th := DefaultThresholds()
	pairs := [][2]Contact{
		{contact(0, 0, 0), contact(3, -3, 90)},
		{contact(0, 0, 0), contact(-2, 0.1, 0)},
		{contact(0, 0, 45), contact(5, 5, 225)},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		enc := Classify(a, b, th)
		ra, rb := AssignRoles(a, b, enc, th)
		rb2, ra2 := AssignRoles(b, a, Classify(b, a, th), th)

		assert.Equal(t, ra, ra2, "role of a changes with argument order")
		assert.Equal(t, rb, rb2, "role of b changes with argument order")
	}
}

func TestAmbiguous(t *testing.T) {
	th := DefaultThresholds()

	assert.True(t, Ambiguous(contact(0, 0, 0), contact(3, 3, 180), th))
	assert.False(t, Ambiguous(contact(0, 0, 0), contact(3, -3, 90), th))
}
