// Package ui draws the selection controls and pipeline status with raygui.
package ui

import (
	"fmt"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gale/product"
)

// HUD is the control panel for the time/height/overlay selection.
type HUD struct {
	x, y     float32
	width    float32
	overlays []string
	visible  bool
}

// NewHUD creates a HUD offering the given overlay choices. The first entry
// should be the no-overlay option.
func NewHUD(x, y, width float32, overlays []string) *HUD {
	return &HUD{x: x, y: y, width: width, overlays: overlays, visible: true}
}

// Toggle switches panel visibility.
func (h *HUD) Toggle() bool {
	h.visible = !h.visible
	return h.visible
}

// Draw renders the controls and returns the possibly-updated selection
// plus whether the user changed anything this frame.
func (h *HUD) Draw(sel product.Selection, timeSize, heightSize int, status string) (product.Selection, bool) {
	if !h.visible {
		return sel, false
	}

	const rowH = 24
	const pad = 8
	x := h.x + pad
	w := h.width - 2*pad
	y := h.y

	gui.Panel(rl.NewRectangle(h.x, h.y, h.width, rowH*5+pad*2), "Selection")
	y += rowH + pad

	changed := false

	if timeSize > 1 {
		t := gui.Slider(rl.NewRectangle(x+40, y, w-80, 20), "time",
			fmt.Sprintf("%d", sel.TimeIndex),
			float32(sel.TimeIndex), 0, float32(timeSize-1))
		if idx := int(t + 0.5); idx != sel.TimeIndex {
			sel.TimeIndex = idx
			changed = true
		}
		y += rowH
	}

	if heightSize > 1 {
		lv := gui.Slider(rl.NewRectangle(x+40, y, w-80, 20), "level",
			fmt.Sprintf("%d", sel.HeightIndex),
			float32(sel.HeightIndex), 0, float32(heightSize-1))
		if idx := int(lv + 0.5); idx != sel.HeightIndex {
			sel.HeightIndex = idx
			changed = true
		}
		y += rowH
	}

	active := int32(h.overlayIndex(sel.Overlay))
	picked := gui.ComboBox(rl.NewRectangle(x, y, w, 20), strings.Join(h.overlays, ";"), active)
	if picked != active {
		sel.Overlay = h.overlayAt(int(picked))
		changed = true
	}
	y += rowH

	gui.Label(rl.NewRectangle(x, y, w, 20), status)

	return sel, changed
}

func (h *HUD) overlayIndex(overlay string) int {
	for i, o := range h.overlays {
		if o == overlay {
			return i
		}
	}
	return 0
}

func (h *HUD) overlayAt(i int) string {
	if i < 0 || i >= len(h.overlays) {
		return product.OverlayNone
	}
	// The first entry is the no-overlay option.
	if i == 0 {
		return product.OverlayNone
	}
	return h.overlays[i]
}
