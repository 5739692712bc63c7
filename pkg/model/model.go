package model

import (
	"fmt"
	"math"
	"strconv"
)

// Page is one wiki page read from the dump.
type Page struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Position is a game-engine coordinate as written in the map-pin file.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are real numbers.
func (p Position) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Pin is a single map-pin record. It is read once, resolved into a graph
// entity and then discarded.
type Pin struct {
	WorldName    string   `json:"world_name"`
	WorldCode    string   `json:"world_code"`
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	InternalName string   `json:"internal_name"`
	Position     Position `json:"position"`
	HasPosition  bool     `json:"has_position"`
	Index        int      `json:"index"` // Position in the source file
}

// Complete reports whether the pin carries the fields needed for resolution.
func (p *Pin) Complete() bool {
	return p.Name != "" && p.Type != "" && p.HasPosition && p.Position.Finite()
}

// World returns the "Name (CODE)" form used for the locatedInWorld literal.
func (p *Pin) World() string {
	if p.WorldName == "" {
		return p.WorldCode
	}
	return fmt.Sprintf("%s (%s)", p.WorldName, p.WorldCode)
}

// Source identifies the pin in provenance logs.
func (p *Pin) Source() string {
	return fmt.Sprintf("mappin:%s#%d(%s,%s)", p.WorldCode, p.Index,
		strconv.FormatFloat(p.Position.X, 'f', -1, 64),
		strconv.FormatFloat(p.Position.Y, 'f', -1, 64))
}
