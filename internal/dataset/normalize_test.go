package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"case", "ALBANIA", "albania"},
		{"whitespace", "  Viet   Nam ", "viet nam"},
		{"tabs and newlines", "United\tKingdom\n", "united kingdom"},
		{"nfc", "Côte d'Ivoire", Key("Côte d'Ivoire")},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestSubstituter(t *testing.T) {
	s := NewSubstituter([]Substitution{
		{From: "Iran, Islamic Republic of", To: "Iran"},
		{From: "Viet Nam", To: "Vietnam"},
	})

	assert.Equal(t, "Iran", s.Apply("Iran, Islamic Republic of"))
	assert.Equal(t, "Iran", s.Apply(" iran,  islamic republic of"))
	assert.Equal(t, "Vietnam", s.Apply("Viet Nam"))
	assert.Equal(t, "Albania", s.Apply(" Albania "))
}

func TestSubstituter_Nil(t *testing.T) {
	var s *Substituter
	assert.Equal(t, "Syria", s.Apply("Syria"))
}
