package scene

// Update is a single mutation operation against one scene row: a set-map of
// field values to write and an unset-list of fields to clear. The repository
// applies the whole operation in one write, never partially.
type Update struct {
	Set   map[Field]any
	Unset []Field
}

// NewUpdate returns an empty update operation.
func NewUpdate() Update {
	return Update{Set: make(map[Field]any)}
}

// Empty reports whether the update would write nothing.
func (u Update) Empty() bool {
	return len(u.Set) == 0 && len(u.Unset) == 0
}

// buildUpdate translates a validated, authorized patch into the single
// update operation. Astropix removal is expressed as an unset.
func buildUpdate(p *PatchRequest) Update {
	upd := NewUpdate()
	if p.Text != nil {
		upd.Set[FieldText] = *p.Text
	}
	if p.OutgoingURL != nil {
		upd.Set[FieldOutgoingURL] = *p.OutgoingURL
	}
	if p.Place != nil {
		upd.Set[FieldPlace] = *p.Place
	}
	if p.Content != nil && p.Content.BackgroundID != nil {
		upd.Set[FieldBackground] = *p.Content.BackgroundID
	}
	if p.Published != nil {
		upd.Set[FieldPublished] = *p.Published
	}
	if p.Astropix != nil {
		if p.Astropix.PublisherID == "" && p.Astropix.ImageID == "" {
			upd.Unset = append(upd.Unset, FieldAstropix)
		} else {
			upd.Set[FieldAstropix] = *p.Astropix
		}
	}
	return upd
}

// touchesPreviewInputs reports whether the update changes a field the
// preview renderer depends on.
func (u Update) touchesPreviewInputs() bool {
	if _, ok := u.Set[FieldPlace]; ok {
		return true
	}
	_, ok := u.Set[FieldBackground]
	return ok
}
