package studio

import (
	"strings"

	"fitstudio/internal/domain"
)

// AssetBin holds the two input slots and the scene text of one session.
// It carries no lock of its own; the owning session serializes access.
type AssetBin struct {
	garment *domain.Asset
	subject *domain.Asset
	scene   string
}

// Set replaces the asset in the given slot.
func (b *AssetBin) Set(slot domain.Slot, asset domain.Asset) {
	switch slot {
	case domain.SlotGarment:
		b.garment = &asset
	case domain.SlotSubject:
		b.subject = &asset
	}
}

// Clear empties the given slot. Clearing an already empty slot is a no-op.
func (b *AssetBin) Clear(slot domain.Slot) {
	switch slot {
	case domain.SlotGarment:
		b.garment = nil
	case domain.SlotSubject:
		b.subject = nil
	}
}

// Get returns the asset in the given slot, or nil when the slot is empty.
func (b *AssetBin) Get(slot domain.Slot) *domain.Asset {
	switch slot {
	case domain.SlotGarment:
		return b.garment
	case domain.SlotSubject:
		return b.subject
	}
	return nil
}

// SetScene stores the scene text as given. Whitespace-only text is kept but
// leaves the bin not ready.
func (b *AssetBin) SetScene(scene string) {
	b.scene = scene
}

// Scene returns the stored scene text verbatim.
func (b *AssetBin) Scene() string { return b.scene }

// Ready reports whether a generation can start: both slots filled and a
// scene that is non-empty after trimming.
func (b *AssetBin) Ready() bool {
	return b.garment != nil && b.subject != nil && strings.TrimSpace(b.scene) != ""
}
