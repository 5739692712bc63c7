package model

import (
	"math"
	"testing"
)

func TestPin_Complete(t *testing.T) {
	tests := []struct {
		name string
		pin  Pin
		want bool
	}{
		{"complete", Pin{Name: "Blacksmith", Type: "Blacksmith", HasPosition: true}, true},
		{"no name", Pin{Type: "Blacksmith", HasPosition: true}, false},
		{"no type", Pin{Name: "Blacksmith", HasPosition: true}, false},
		{"no position", Pin{Name: "Blacksmith", Type: "Blacksmith"}, false},
		{"nan position", Pin{Name: "Blacksmith", Type: "Blacksmith", HasPosition: true, Position: Position{X: math.NaN()}}, false},
		{"inf position", Pin{Name: "Blacksmith", Type: "Blacksmith", HasPosition: true, Position: Position{Y: math.Inf(-1)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pin.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPin_WorldAndSource(t *testing.T) {
	p := Pin{WorldName: "No Man's Land", WorldCode: "NO", Index: 3, Position: Position{X: -890.57, Y: 12}}
	if got := p.World(); got != "No Man's Land (NO)" {
		t.Errorf("World() = %q", got)
	}
	if got := p.Source(); got != "mappin:NO#3(-890.57,12)" {
		t.Errorf("Source() = %q", got)
	}
}
