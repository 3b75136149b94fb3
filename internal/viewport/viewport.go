// Package viewport holds the fixed table of device sizes the suite emulates.
package viewport

import "fmt"

// Viewport is a named width/height pair. Touch marks presets that stand for
// touch devices; sessions pinned to them get touch input enabled.
type Viewport struct {
	Key    string
	Width  int
	Height int
	Name   string
	Touch  bool
}

var (
	MobileSmall     = Viewport{Key: "mobile_small", Width: 375, Height: 667, Name: "iPhone SE", Touch: true}
	MobileLarge     = Viewport{Key: "mobile_large", Width: 430, Height: 932, Name: "iPhone 15 Pro Max", Touch: true}
	TabletPortrait  = Viewport{Key: "tablet_portrait", Width: 768, Height: 1024, Name: "iPad Portrait", Touch: true}
	TabletLandscape = Viewport{Key: "tablet_landscape", Width: 1024, Height: 768, Name: "iPad Landscape", Touch: true}
	Desktop         = Viewport{Key: "desktop", Width: 1440, Height: 900, Name: "Desktop"}
)

// All returns the presets from smallest device class to largest.
// The slice is a fresh copy on every call.
func All() []Viewport {
	return []Viewport{MobileSmall, MobileLarge, TabletPortrait, TabletLandscape, Desktop}
}

// ByKey looks up a preset by its key.
func ByKey(key string) (Viewport, bool) {
	for _, v := range All() {
		if v.Key == key {
			return v, true
		}
	}
	return Viewport{}, false
}

// Label renders the preset for test names, e.g. "iPhone SE (375x667)".
func (v Viewport) Label() string {
	return fmt.Sprintf("%s (%dx%d)", v.Name, v.Width, v.Height)
}

// Size renders "375x667".
func (v Viewport) Size() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// Contains reports whether a box starting at x with the given width ends
// within the viewport width plus tolerance.
func (v Viewport) Contains(x, width, tolerance float64) bool {
	return x+width <= float64(v.Width)+tolerance
}
