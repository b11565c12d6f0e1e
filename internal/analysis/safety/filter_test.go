package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCrisisText(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"I want to kill myself", true},
		{"KILL MYSELF", true},
		{"thinking about Suicide lately", true},
		{"sometimes I feel like I want to die", true},
		{"I might hurt someone", true},
		{"I had a rough day", false},
		{"", false},
		// Known limitation: Swedish phrasing is not covered.
		{"Jag vill inte leva längre", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCrisisText(tt.text), tt.text)
	}
}

func TestCrisisResponseMentionsEmergencyNumbers(t *testing.T) {
	reply := CrisisResponse()
	assert.Contains(t, reply, "112")
	assert.Contains(t, reply, "90101")
	assert.Contains(t, reply, "08-702 16 80")
}

func TestScreen(t *testing.T) {
	d := Screen("suicide")
	assert.True(t, d.Triggered)
	assert.Equal(t, CrisisResponse(), d.Reply)

	assert.Equal(t, Decision{}, Screen("hej"))
}
