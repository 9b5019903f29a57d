package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDriverOrderDefaults(t *testing.T) {
	got := ParseDriverOrder("", []string{"oto", "pulse", "headless"})
	assert.Equal(t, []string{"oto", "pulse", "headless"}, got)
}

func TestParseDriverOrderExclusion(t *testing.T) {
	got := ParseDriverOrder("-pulse", []string{"oto", "pulse", "headless"})
	assert.Equal(t, []string{"oto", "headless"}, got)
}

func TestParseDriverOrderExplicitReorder(t *testing.T) {
	got := ParseDriverOrder("pulse,oto", []string{"oto", "pulse", "headless"})
	assert.Equal(t, []string{"pulse", "oto"}, got)
}

func TestParseDriverOrderDuplicatePromotes(t *testing.T) {
	// "oto" appears twice; per the Open Question resolution it is
	// repositioned to its last mention, not duplicated or rejected.
	got := ParseDriverOrder("oto,pulse,oto", []string{"oto", "pulse", "headless"})
	assert.Equal(t, []string{"pulse", "oto"}, got)
}

func TestParseDriverOrderRemovalAfterReorder(t *testing.T) {
	got := ParseDriverOrder("pulse,oto,-pulse", []string{"oto", "pulse", "headless"})
	assert.Equal(t, []string{"oto"}, got)
}

type stubFactory struct {
	name    string
	initOK  bool
	support map[Kind]bool
}

func (f *stubFactory) Name() string { return f.name }
func (f *stubFactory) Init() bool   { return f.initOK }
func (f *stubFactory) Probe(Kind) ([]string, error) {
	return nil, nil
}
func (f *stubFactory) Supports(k Kind) bool { return f.support[k] }
func (f *stubFactory) Create(Kind, DisconnectFunc) (Backend, error) {
	return nil, nil
}

func TestSelectFactoryFirstThatInitsAndSupports(t *testing.T) {
	factories := map[string]Factory{
		"broken":    &stubFactory{name: "broken", initOK: false, support: map[Kind]bool{device0: true}},
		"wrongkind": &stubFactory{name: "wrongkind", initOK: true, support: map[Kind]bool{}},
		"good":      &stubFactory{name: "good", initOK: true, support: map[Kind]bool{device0: true}},
	}
	got := SelectFactory([]string{"broken", "wrongkind", "good"}, factories, device0)
	assert.Same(t, factories["good"], got)
}

func TestSelectFactoryNoneMatch(t *testing.T) {
	factories := map[string]Factory{
		"wrongkind": &stubFactory{name: "wrongkind", initOK: true, support: map[Kind]bool{}},
	}
	assert.Nil(t, SelectFactory([]string{"wrongkind"}, factories, device0))
}

// device0 stands in for device.Playback without importing the device
// package in these table-logic-only tests.
const device0 Kind = 0
