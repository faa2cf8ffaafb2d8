package fingerprint

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lumina/internal/catalog"
)

// writePNG renders a small gradient so the difference hash has real
// structure to work with.
func writePNG(t *testing.T, path string, seed uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x*4) + seed,
				G: uint8(y * 5),
				B: seed,
				A: 255,
			})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create() error = %v", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
}

func TestEngine_ComputeImage(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "photo.png")
	writePNG(t, path, 0)

	engine := New(0)
	fp, err := engine.Compute(context.Background(), path, catalog.KindImage)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if len(fp.ExactHash) != 64 {
		t.Errorf("Compute() exact hash length = %d, want 64 hex chars", len(fp.ExactHash))
	}
	if fp.PerceptualHash == nil {
		t.Error("Compute() perceptual hash is nil for an image")
	}
	if fp.Width != 64 || fp.Height != 48 {
		t.Errorf("Compute() dimensions = %dx%d, want 64x48", fp.Width, fp.Height)
	}
}

func TestEngine_ComputeDeterministic(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a.png")
	b := filepath.Join(tmpDir, "b.png")
	writePNG(t, a, 0)
	writePNG(t, b, 0)

	engine := New(0)
	fpA, err := engine.Compute(context.Background(), a, catalog.KindImage)
	if err != nil {
		t.Fatalf("Compute(a) error = %v", err)
	}
	fpB, err := engine.Compute(context.Background(), b, catalog.KindImage)
	if err != nil {
		t.Fatalf("Compute(b) error = %v", err)
	}

	// Identical bytes at different paths fingerprint identically.
	if fpA.ExactHash != fpB.ExactHash {
		t.Errorf("exact hashes differ for identical content: %s vs %s", fpA.ExactHash, fpB.ExactHash)
	}
	if *fpA.PerceptualHash != *fpB.PerceptualHash {
		t.Errorf("perceptual hashes differ for identical content: %d vs %d", *fpA.PerceptualHash, *fpB.PerceptualHash)
	}
}

func TestEngine_ComputeDifferentContent(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a.png")
	b := filepath.Join(tmpDir, "b.png")
	writePNG(t, a, 0)
	writePNG(t, b, 200)

	engine := New(0)
	fpA, err := engine.Compute(context.Background(), a, catalog.KindImage)
	if err != nil {
		t.Fatalf("Compute(a) error = %v", err)
	}
	fpB, err := engine.Compute(context.Background(), b, catalog.KindImage)
	if err != nil {
		t.Fatalf("Compute(b) error = %v", err)
	}
	if fpA.ExactHash == fpB.ExactHash {
		t.Error("exact hashes collide for different content")
	}
}

func TestEngine_ComputeVideoExactOnly(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "clip.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	engine := New(0)
	fp, err := engine.Compute(context.Background(), path, catalog.KindVideo)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if fp.ExactHash == "" {
		t.Error("Compute() video exact hash is empty")
	}
	if fp.PerceptualHash != nil {
		t.Error("Compute() video got a perceptual hash, want nil")
	}
}

func TestEngine_ComputeMissingFile(t *testing.T) {
	engine := New(0)
	_, err := engine.Compute(context.Background(), "/no/such/file.jpg", catalog.KindImage)
	var fpErr *Error
	if !errors.As(err, &fpErr) {
		t.Fatalf("Compute() error = %v, want *Error", err)
	}
	if fpErr.Op != "open" {
		t.Errorf("Error op = %q, want open", fpErr.Op)
	}
}

func TestEngine_ComputeUndecodableImage(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.jpg")
	if err := os.WriteFile(path, []byte("jpeg header goes here, honest"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	engine := New(0)
	_, err := engine.Compute(context.Background(), path, catalog.KindImage)
	var fpErr *Error
	if !errors.As(err, &fpErr) {
		t.Fatalf("Compute() error = %v, want *Error", err)
	}
	if fpErr.Op != "decode" {
		t.Errorf("Error op = %q, want decode", fpErr.Op)
	}
}

func TestEngine_ComputeCanceledContext(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "photo.png")
	writePNG(t, path, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := New(time.Minute)
	_, err := engine.Compute(ctx, path, catalog.KindImage)
	if err == nil {
		t.Fatal("Compute() with canceled context expected error, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Compute() error = %v, want context.Canceled in chain", err)
	}
}
