// Package wtml serializes scenes into the legacy WTML catalog format: a
// Folder holding a single Place with the layer's imageset. Only the subset
// of the format the legacy viewer reads is emitted.
package wtml

import (
	"encoding/xml"

	"github.com/skylight-social/skylight/internal/image"
	"github.com/skylight-social/skylight/internal/scene"
)

// Folder is the WTML document root.
type Folder struct {
	XMLName    xml.Name `xml:"Folder"`
	Browseable string   `xml:"Browseable,attr"`
	Group      string   `xml:"Group,attr"`
	Name       string   `xml:"Name,attr"`
	Searchable string   `xml:"Searchable,attr"`
	Places     []Place  `xml:"Place"`
}

// Place is a single sky location with a foreground imageset.
type Place struct {
	Name        string  `xml:"Name,attr"`
	RA          float64 `xml:"RA,attr"`
	Dec         float64 `xml:"Dec,attr"`
	Rotation    float64 `xml:"Rotation,attr"`
	ZoomLevel   float64 `xml:"ZoomLevel,attr"`
	DataSetType string  `xml:"DataSetType,attr"`
	Opacity     float64 `xml:"Opacity,attr"`
	Angle       float64 `xml:"Angle,attr"`
	AngularSize float64 `xml:"AngularSize,attr"`

	ForegroundImageSets *ImageSets `xml:"ForegroundImageSets,omitempty"`
	ThumbnailURL        string     `xml:"ThumbnailUrl,omitempty"`
}

// ImageSets wraps the imageset list.
type ImageSets struct {
	ImageSets []ImageSet `xml:"ImageSet"`
}

// ImageSet carries the display parameters of one image.
type ImageSet struct {
	Name               string  `xml:"Name,attr"`
	URL                string  `xml:"Url,attr"`
	BandPass           string  `xml:"BandPass,attr"`
	DataSetType        string  `xml:"DataSetType,attr"`
	Projection         string  `xml:"Projection,attr"`
	BaseTileLevel      int     `xml:"BaseTileLevel,attr"`
	TileLevels         int     `xml:"TileLevels,attr"`
	BaseDegreesPerTile float64 `xml:"BaseDegreesPerTile,attr"`
	BottomsUp          bool    `xml:"BottomsUp,attr"`
	CenterX            float64 `xml:"CenterX,attr"`
	CenterY            float64 `xml:"CenterY,attr"`
	OffsetX            float64 `xml:"OffsetX,attr"`
	OffsetY            float64 `xml:"OffsetY,attr"`
	Rotation           float64 `xml:"Rotation,attr"`
	Sparse             bool    `xml:"Sparse,attr"`
	WidthFactor        int     `xml:"WidthFactor,attr"`

	Credits      string `xml:"Credits,omitempty"`
	ThumbnailURL string `xml:"ThumbnailUrl,omitempty"`
	Description  string `xml:"Description,omitempty"`
}

// BuildPlaceDocument assembles the single-place WTML folder for a legacy
// place projection and its resolved layer image.
func BuildPlaceDocument(lp *scene.LegacyPlace, img *image.Image) *Folder {
	return &Folder{
		Browseable: "True",
		Searchable: "True",
		Group:      "Explorer",
		Name:       lp.Name,
		Places: []Place{{
			Name:        lp.Name,
			RA:          lp.RAHours,
			Dec:         lp.DecDeg,
			Rotation:    lp.RotationDeg,
			ZoomLevel:   lp.ZoomLevel,
			DataSetType: "Sky",
			Opacity:     lp.Opacity * 100,
			ForegroundImageSets: &ImageSets{
				ImageSets: []ImageSet{imageSetFor(lp, img)},
			},
			ThumbnailURL: img.Wwt.ThumbnailURL,
		}},
	}
}

func imageSetFor(lp *scene.LegacyPlace, img *image.Image) ImageSet {
	return ImageSet{
		Name:               lp.Name,
		URL:                img.Wwt.URL,
		BandPass:           "Visible",
		DataSetType:        "Sky",
		Projection:         img.Wwt.ProjectionType,
		TileLevels:         img.Wwt.TileLevels,
		BaseDegreesPerTile: img.Wwt.BaseDegreesPerTile,
		BottomsUp:          img.Wwt.BottomsUp,
		CenterX:            img.Wwt.CenterX,
		CenterY:            img.Wwt.CenterY,
		OffsetX:            img.Wwt.OffsetX,
		OffsetY:            img.Wwt.OffsetY,
		Rotation:           img.Wwt.Rotation,
		Sparse:             true,
		WidthFactor:        img.Wwt.WidthFactor,
		Credits:            img.Credits,
		ThumbnailURL:       img.Wwt.ThumbnailURL,
		Description:        img.AltText,
	}
}

// Marshal renders the document with the XML header and two-space indent.
func Marshal(f *Folder) ([]byte, error) {
	body, err := xml.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
