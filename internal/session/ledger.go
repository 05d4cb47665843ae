// Package session provides the per-session interaction ledger: idempotent
// impression and like tracking scoped to one client session. Session
// lifecycle (creation, expiry) belongs to the store; the core only reads
// and mutates the ledger document.
package session

import "time"

// Impression records one deduplicated scene view.
type Impression struct {
	SceneID string    `cbor:"1,keyasint" json:"scene_id"`
	Time    time.Time `cbor:"2,keyasint" json:"time"`
}

// Ledger is the session document. It is owned exclusively by one session's
// store record; two requests never mutate the same ledger concurrently in
// this design, so the type itself carries no lock.
type Ledger struct {
	Impressions []Impression `cbor:"1,keyasint" json:"impressions"`
	Likes       []string     `cbor:"2,keyasint" json:"likes"`
	Created     time.Time    `cbor:"3,keyasint" json:"created"`
}

// NewLedger creates an empty ledger stamped with the creation time.
func NewLedger(now time.Time) *Ledger {
	return &Ledger{Created: now}
}

// TryAddImpression records an impression for the scene unless one is
// already present. Returns true when recorded; a true result obligates the
// caller to increment the persisted impression counter exactly once.
func (l *Ledger) TryAddImpression(sceneID string, now time.Time) bool {
	for _, imp := range l.Impressions {
		if imp.SceneID == sceneID {
			return false
		}
	}
	l.Impressions = append(l.Impressions, Impression{SceneID: sceneID, Time: now})
	return true
}

// TryAddLike records a like unless already present. A true result obligates
// the caller to increment the persisted like counter.
func (l *Ledger) TryAddLike(sceneID string) bool {
	if l.Liked(sceneID) {
		return false
	}
	l.Likes = append(l.Likes, sceneID)
	return true
}

// TryRemoveLike removes a like if present. A true result obligates the
// caller to decrement the persisted like counter.
func (l *Ledger) TryRemoveLike(sceneID string) bool {
	for i, id := range l.Likes {
		if id == sceneID {
			l.Likes = append(l.Likes[:i], l.Likes[i+1:]...)
			return true
		}
	}
	return false
}

// Liked reports whether the session has liked the scene.
func (l *Ledger) Liked(sceneID string) bool {
	for _, id := range l.Likes {
		if id == sceneID {
			return true
		}
	}
	return false
}
