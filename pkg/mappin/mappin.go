// Package mappin reads the game's map-pin export.
package mappin

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"witcherkg/pkg/kgerrors"
	"witcherkg/pkg/model"
)

type xmlWorld struct {
	Name    string      `xml:"name,attr"`
	Code    string      `xml:"code,attr"`
	Mappins []xmlMappin `xml:"mappin"`
}

type xmlMappin struct {
	Type         string       `xml:"type,attr"`
	Name         *string      `xml:"name"`
	InternalName *string      `xml:"internalname"`
	Position     *xmlPosition `xml:"position"`
}

type xmlPosition struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
}

// ReadFile reads pins from the XML file at path.
func ReadFile(path string) ([]model.Pin, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, kgerrors.New(kgerrors.KindMissingFile, "mappin", path, err)
		}
		return nil, fmt.Errorf("open map pins: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes every <mappin> of every <world> element in document order.
// Absent elements leave the matching fields empty; a position whose
// coordinates do not parse counts as absent.
func Read(r io.Reader) ([]model.Pin, error) {
	dec := xml.NewDecoder(r)
	var pins []model.Pin
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return pins, nil
		}
		if err != nil {
			return pins, fmt.Errorf("decode map pins: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "world" {
			continue
		}
		var w xmlWorld
		if err := dec.DecodeElement(&w, &start); err != nil {
			return pins, fmt.Errorf("decode world: %w", err)
		}
		for _, m := range w.Mappins {
			pins = append(pins, toPin(w, m, len(pins)))
		}
	}
}

func toPin(w xmlWorld, m xmlMappin, index int) model.Pin {
	p := model.Pin{
		WorldName: strings.TrimSpace(w.Name),
		WorldCode: strings.TrimSpace(w.Code),
		Type:      strings.TrimSpace(m.Type),
		Index:     index,
	}
	if m.Name != nil {
		p.Name = strings.TrimSpace(*m.Name)
	}
	if m.InternalName != nil {
		p.InternalName = strings.TrimSpace(*m.InternalName)
	}
	if m.Position != nil {
		x, errX := strconv.ParseFloat(strings.TrimSpace(m.Position.X), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(m.Position.Y), 64)
		pos := model.Position{X: x, Y: y}
		// NaN and Inf parse but cannot be transformed or deduplicated.
		if errX == nil && errY == nil && pos.Finite() {
			p.Position = pos
			p.HasPosition = true
		}
	}
	return p
}
