package scene

import (
	"errors"
	"math"
)

// ErrNotSinglePlace is returned when a scene cannot be represented as a
// single-location legacy Place (zero or multiple image layers).
var ErrNotSinglePlace = errors.New("scene is not representable as a single place")

// Legacy viewer constants. The zoom factor is a 6x unit-convention scale
// with a 1.2 padding factor baked in; both must be reproduced exactly for
// visual parity with the legacy viewer.
const (
	legacyZoomFactor = 7.2
	placeNameMaxLen  = 60
)

// LegacyPlace is the numeric single-location projection consumed by the
// legacy catalog serializer. Angles are in the legacy units: declination
// and rotation in degrees, right ascension in hours.
type LegacyPlace struct {
	Name        string
	RAHours     float64
	DecDeg      float64
	RotationDeg float64
	ZoomLevel   float64
	ImageID     string
	Opacity     float64
}

// ToLegacyPlace projects the scene into the legacy Place representation.
// Only scenes with exactly one image layer are representable.
func (s *Scene) ToLegacyPlace() (*LegacyPlace, error) {
	if len(s.Content.ImageLayers) != 1 {
		return nil, ErrNotSinglePlace
	}
	layer := s.Content.ImageLayers[0]
	return &LegacyPlace{
		Name:        placeName(s.Text),
		RAHours:     s.Place.RARad * 12 / math.Pi,
		DecDeg:      s.Place.DecRad * 180 / math.Pi,
		RotationDeg: s.Place.RollRad * 180 / math.Pi,
		ZoomLevel:   s.Place.RoiHeightDeg * legacyZoomFactor,
		ImageID:     layer.ImageID,
		Opacity:     layer.Opacity,
	}, nil
}

func placeName(text string) string {
	runes := []rune(text)
	if len(runes) > placeNameMaxLen {
		return string(runes[:placeNameMaxLen])
	}
	if text == "" {
		return "Scene"
	}
	return text
}
