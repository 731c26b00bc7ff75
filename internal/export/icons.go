package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/heimdex/markers-extractor/internal/markers"
)

const iconSize = 32

// Icon is the badge image written next to a manifest for one marker kind.
// The zero Icon is the empty icon and is never written.
type Icon struct {
	name string
	fill color.RGBA
}

// EmptyIcon is used by profiles whose destination has no icon column.
var EmptyIcon = Icon{}

var (
	iconStandard  = Icon{name: "standard", fill: color.RGBA{0x3c, 0x8c, 0xf0, 0xff}}
	iconToDo      = Icon{name: "todo", fill: color.RGBA{0xe8, 0x45, 0x45, 0xff}}
	iconCompleted = Icon{name: "completed", fill: color.RGBA{0x4c, 0xbb, 0x4c, 0xff}}
	iconChapter   = Icon{name: "chapter", fill: color.RGBA{0xf0, 0x8c, 0x28, 0xff}}
)

// IconFor returns the icon of a marker kind.
func IconFor(k markers.Kind) Icon {
	switch k.Tag {
	case markers.KindToDo:
		if k.Completed {
			return iconCompleted
		}
		return iconToDo
	case markers.KindChapter:
		return iconChapter
	}
	return iconStandard
}

func (i Icon) IsEmpty() bool { return i.name == "" }

// Filename is the icon's file name, or "" for the empty icon.
func (i Icon) Filename() string {
	if i.IsEmpty() {
		return ""
	}
	return "marker-" + i.name + ".png"
}

// PNG draws the icon: a filled disc for markers, a square for chapters.
func (i Icon) PNG() ([]byte, error) {
	if i.IsEmpty() {
		return nil, fmt.Errorf("empty icon has no image")
	}

	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	const c = iconSize / 2
	const r2 = (iconSize/2 - 2) * (iconSize/2 - 2)
	for y := range iconSize {
		for x := range iconSize {
			var inside bool
			if i != iconChapter {
				dx, dy := x-c, y-c
				inside = dx*dx+dy*dy <= r2
			} else {
				inside = x >= 3 && x < iconSize-3 && y >= 3 && y < iconSize-3
			}
			if inside {
				img.Set(x, y, i.fill)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
