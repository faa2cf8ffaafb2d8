package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"lumina/internal/catalog"
)

// Error is a per-file fingerprinting failure. It never aborts a batch; the
// ingest pipeline records the asset as errored and keeps going.
type Error struct {
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fingerprint %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fingerprint is the content identity and visual metadata of one file.
type Fingerprint struct {
	// ExactHash is the hex SHA-256 over the full byte stream.
	ExactHash string
	// PerceptualHash is a 64-bit difference hash. Nil when the file has no
	// decodable image content (videos, corrupt images).
	PerceptualHash *uint64
	Width          int
	Height         int
	CapturedAt     time.Time
	Camera         string
	Lens           string
	ISO            int
}

// Engine computes content fingerprints. It is a pure function of file
// content: results are cached by the catalog, never here.
type Engine struct {
	timeout time.Duration
}

// New creates an Engine. timeout bounds the hashing of a single file so an
// unresponsive disk surfaces as an *Error instead of hanging a scan.
func New(timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{timeout: timeout}
}

// Compute fingerprints the file at path. Images get an exact hash, a
// perceptual hash, pixel dimensions, and EXIF capture metadata. Videos get
// an exact hash only: representative-frame hashing would need a video
// decoder, so videos participate in exact-duplicate detection but not in
// perceptual similarity. This is a deliberate simplification.
func (e *Engine) Compute(ctx context.Context, path string, kind catalog.MediaKind) (*Fingerprint, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	exact, err := e.hashFile(ctx, path)
	if err != nil {
		return nil, err
	}
	fp := &Fingerprint{ExactHash: exact}

	if kind != catalog.KindImage {
		return fp, nil
	}

	if err := e.hashVisual(ctx, path, fp); err != nil {
		return nil, err
	}
	readExif(path, fp)
	return fp, nil
}

// ExactHash computes only the streaming content hash, honoring the per-file
// timeout.
func (e *Engine) ExactHash(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.hashFile(ctx, path)
}

// hashFile streams the file through SHA-256 in fixed-size chunks so large
// videos never need to fit in memory.
func (e *Engine) hashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &Error{Path: path, Op: "open", Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, &contextReader{ctx: ctx, r: f}); err != nil {
		return "", &Error{Path: path, Op: "hash", Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashVisual decodes the image (honoring EXIF orientation so a rotated
// re-export hashes the same) and computes the 64-bit difference hash.
func (e *Engine) hashVisual(ctx context.Context, path string, fp *Fingerprint) error {
	if err := ctx.Err(); err != nil {
		return &Error{Path: path, Op: "decode", Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return &Error{Path: path, Op: "open", Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return &Error{Path: path, Op: "decode", Err: err}
	}

	bounds := img.Bounds()
	fp.Width = bounds.Dx()
	fp.Height = bounds.Dy()

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return &Error{Path: path, Op: "dhash", Err: err}
	}
	v := hash.GetHash()
	fp.PerceptualHash = &v
	return nil
}

// contextReader cancels an in-flight read loop between chunks.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
