// Package scene provides the scene aggregate, its validation rules, and the
// mutation engine that applies authorized changes as single atomic writes.
package scene

import (
	"math"
	"time"
)

// Place anchors a scene to a celestial position. All angles are radians
// except RoiHeightDeg, which follows the legacy degree convention.
type Place struct {
	RARad          float64 `json:"ra_rad"`
	DecRad         float64 `json:"dec_rad"`
	RollRad        float64 `json:"roll_rad"`
	RoiHeightDeg   float64 `json:"roi_height_deg"`
	RoiAspectRatio float64 `json:"roi_aspect_ratio"`
}

// Validate checks the documented range invariants for each field.
// A place is applied in full or not at all, so any violation rejects it.
func (p Place) Validate() error {
	if p.RARad < 0 || p.RARad > 2*math.Pi {
		return SchemaError{Field: "place.ra_rad", Message: "must be within [0, 2pi]"}
	}
	if p.DecRad < -math.Pi/2 || p.DecRad > math.Pi/2 {
		return SchemaError{Field: "place.dec_rad", Message: "must be within [-pi/2, pi/2]"}
	}
	if p.RollRad < -math.Pi || p.RollRad > math.Pi {
		return SchemaError{Field: "place.roll_rad", Message: "must be within [-pi, pi]"}
	}
	if p.RoiHeightDeg < 0 || p.RoiHeightDeg > 360 {
		return SchemaError{Field: "place.roi_height_deg", Message: "must be within [0, 360]"}
	}
	if p.RoiAspectRatio < 0.1 || p.RoiAspectRatio > 10 {
		return SchemaError{Field: "place.roi_aspect_ratio", Message: "must be within [0.1, 10]"}
	}
	return nil
}

// ImageLayer references an image by id with a blend opacity in [0, 1].
type ImageLayer struct {
	ImageID string  `json:"image_id"`
	Opacity float64 `json:"opacity"`
}

// Content holds the visual composition of a scene: an optional background
// image and an ordered list of image layers. Layers must be non-empty at
// creation time; the background may be attached later by patch.
type Content struct {
	BackgroundID string       `json:"background_id,omitempty"`
	ImageLayers  []ImageLayer `json:"image_layers,omitempty"`
}

// Astropix cross-references an external AstroPix catalog record.
// Both fields are set together or not at all.
type Astropix struct {
	PublisherID string `json:"publisher_id"`
	ImageID     string `json:"image_id"`
}

// Scene is the persisted aggregate. One scene is one row; the single-write
// update discipline in the repository is what provides patch atomicity.
type Scene struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	CreationDate time.Time `json:"creation_date"`

	// Interaction counters. Only ever adjusted through
	// Repository.ChangeCount; never written by a patch.
	Impressions int64 `json:"impressions"`
	Likes       int64 `json:"likes"`
	Clicks      int64 `json:"clicks"`
	Shares      int64 `json:"shares"`

	Place   Place   `json:"place"`
	Content Content `json:"content"`

	// Previews maps a preview kind (e.g. "thumbnail", "video") to a path
	// relative to the configured preview base URL.
	Previews map[string]string `json:"previews,omitempty"`

	OutgoingURL string `json:"outgoing_url,omitempty"`
	Text        string `json:"text"`
	Published   bool   `json:"published"`

	// HomeTimelineOrder is the ranking key for the home timeline.
	// Nil means the scene is unranked and never appears there.
	HomeTimelineOrder *float64 `json:"home_timeline_order,omitempty"`

	Astropix *Astropix `json:"astropix,omitempty"`
}

// MaxTextLength bounds free-text fields, counted in Unicode code points.
const MaxTextLength = 5000

// ShareChannels enumerates the accepted share event types.
var ShareChannels = map[string]bool{
	"facebook": true,
	"linkedin": true,
	"twitter":  true,
	"email":    true,
	"copy":     true,
}
