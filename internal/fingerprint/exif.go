package fingerprint

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// readExif fills capture metadata from the file's EXIF block when present.
// Missing or unreadable EXIF is not an error: plenty of valid assets
// (screenshots, exports) carry none.
func readExif(path string, fp *Fingerprint) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer func() {
		_ = f.Close()
	}()

	x, err := exif.Decode(f)
	if err != nil {
		return
	}

	if dt, err := x.DateTime(); err == nil {
		fp.CapturedAt = dt
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			fp.Camera = s
		}
	}
	if tag, err := x.Get(exif.LensModel); err == nil {
		if s, err := tag.StringVal(); err == nil {
			fp.Lens = s
		}
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := tag.Int(0); err == nil {
			fp.ISO = v
		}
	}
}
