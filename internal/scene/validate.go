package scene

import (
	"strconv"
	"unicode/utf8"

	"github.com/skylight-social/skylight/internal/validate"
)

// Field names a patchable part of the aggregate for authorization purposes.
type Field string

// Patchable fields. FieldAstropix is gated separately from the rest.
const (
	FieldText        Field = "text"
	FieldOutgoingURL Field = "outgoing_url"
	FieldPlace       Field = "place"
	FieldBackground  Field = "content.background_id"
	FieldPublished   Field = "published"
	FieldAstropix    Field = "astropix"
)

// CreateRequest is the decoded creation payload. Pointer fields distinguish
// "absent" from zero values so required-field errors name the right path.
type CreateRequest struct {
	Place       *Place          `json:"place"`
	Content     *ContentRequest `json:"content"`
	Text        *string         `json:"text"`
	OutgoingURL *string         `json:"outgoing_url,omitempty"`
	Published   *bool           `json:"published,omitempty"`
	Astropix    *Astropix       `json:"astropix,omitempty"`
}

// ContentRequest is the content block of a creation payload.
type ContentRequest struct {
	BackgroundID *string      `json:"background_id,omitempty"`
	ImageLayers  []ImageLayer `json:"image_layers"`
}

// PatchRequest is the decoded patch payload. Every field is optional;
// absence means "no change requested".
type PatchRequest struct {
	Text        *string              `json:"text,omitempty"`
	OutgoingURL *string              `json:"outgoing_url,omitempty"`
	Place       *Place               `json:"place,omitempty"`
	Content     *PatchContentRequest `json:"content,omitempty"`
	Published   *bool                `json:"published,omitempty"`
	Astropix    *Astropix            `json:"astropix,omitempty"`
}

// PatchContentRequest carries the patchable subset of Content.
// Layers are immutable after creation in the current design.
type PatchContentRequest struct {
	BackgroundID *string `json:"background_id,omitempty"`
}

// TouchedFields lists the fields a patch requests to change, in a fixed
// order. The authorization gate decides conjunctively over this set.
func (p *PatchRequest) TouchedFields() []Field {
	var fields []Field
	if p.Text != nil {
		fields = append(fields, FieldText)
	}
	if p.OutgoingURL != nil {
		fields = append(fields, FieldOutgoingURL)
	}
	if p.Place != nil {
		fields = append(fields, FieldPlace)
	}
	if p.Content != nil && p.Content.BackgroundID != nil {
		fields = append(fields, FieldBackground)
	}
	if p.Published != nil {
		fields = append(fields, FieldPublished)
	}
	if p.Astropix != nil {
		fields = append(fields, FieldAstropix)
	}
	return fields
}

func validateText(field, s string) error {
	if utf8.RuneCountInString(s) > MaxTextLength {
		return SchemaError{Field: field, Message: "exceeds 5000 characters"}
	}
	return nil
}

func validateOutgoingURL(s string) error {
	if err := validateText("outgoing_url", s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	if _, err := validate.URL(s, validate.OutgoingLinkConstraints); err != nil {
		return SchemaError{Field: "outgoing_url", Message: err.Error()}
	}
	return nil
}

// validateAstropix enforces the atomic-pair rule. Both fields empty is a
// removal instruction (remove=true); exactly one empty is malformed.
func validateAstropix(a *Astropix) (remove bool, err error) {
	if a.PublisherID == "" && a.ImageID == "" {
		return true, nil
	}
	if a.PublisherID == "" || a.ImageID == "" {
		return false, SchemaError{Field: "astropix", Message: "publisher_id and image_id must be set together"}
	}
	return false, nil
}

// ValidateCreate checks the shape and semantic invariants of a creation
// payload. Image reference resolution is the engine's job; this function is
// pure.
func (req *CreateRequest) ValidateCreate() error {
	if req.Place == nil {
		return SchemaError{Field: "place", Message: "is required"}
	}
	if err := req.Place.Validate(); err != nil {
		return err
	}
	if req.Content == nil {
		return SchemaError{Field: "content", Message: "is required"}
	}
	if len(req.Content.ImageLayers) == 0 {
		return SchemaError{Field: "content.image_layers", Message: "at least one image layer is required"}
	}
	for i, layer := range req.Content.ImageLayers {
		if layer.ImageID == "" {
			return SchemaError{Field: layerFieldPath(i, "image_id"), Message: "is required"}
		}
		if layer.Opacity < 0 || layer.Opacity > 1 {
			return SchemaError{Field: layerFieldPath(i, "opacity"), Message: "must be within [0, 1]"}
		}
	}
	if req.Text == nil {
		return SchemaError{Field: "text", Message: "is required"}
	}
	if err := validateText("text", *req.Text); err != nil {
		return err
	}
	if req.OutgoingURL != nil {
		if err := validateOutgoingURL(*req.OutgoingURL); err != nil {
			return err
		}
	}
	if req.Astropix != nil {
		remove, err := validateAstropix(req.Astropix)
		if err != nil {
			return err
		}
		if remove {
			// Nothing to remove on a brand new scene.
			return SchemaError{Field: "astropix", Message: "cannot be empty on creation"}
		}
	}
	return nil
}

// ValidatePatch checks the shape and semantic invariants of a patch payload.
// Background reference resolution is the engine's job.
func (p *PatchRequest) ValidatePatch() error {
	if p.Text != nil {
		if err := validateText("text", *p.Text); err != nil {
			return err
		}
	}
	if p.OutgoingURL != nil {
		if err := validateOutgoingURL(*p.OutgoingURL); err != nil {
			return err
		}
	}
	if p.Place != nil {
		if err := p.Place.Validate(); err != nil {
			return err
		}
	}
	if p.Content != nil && p.Content.BackgroundID != nil && *p.Content.BackgroundID == "" {
		return SchemaError{Field: "content.background_id", Message: "must not be empty"}
	}
	if p.Astropix != nil {
		if _, err := validateAstropix(p.Astropix); err != nil {
			return err
		}
	}
	return nil
}

func layerFieldPath(i int, leaf string) string {
	return "content.image_layers[" + strconv.Itoa(i) + "]." + leaf
}
