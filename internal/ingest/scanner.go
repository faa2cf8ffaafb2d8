package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lumina/internal/catalog"
)

// WalkedFile is one media file discovered during source scanning.
type WalkedFile struct {
	Path    string
	Size    int64
	ModTime time.Time
	Kind    catalog.MediaKind
}

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	".tif": {}, ".tiff": {}, ".bmp": {}, ".heic": {}, ".dng": {},
	".cr2": {}, ".cr3": {}, ".nef": {}, ".arw": {}, ".raf": {},
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {},
	".m4v": {}, ".mts": {}, ".3gp": {},
}

// KindForPath classifies a path by extension. The second return is false
// for unsupported types.
func KindForPath(path string) (catalog.MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExts[ext]; ok {
		return catalog.KindImage, true
	}
	if _, ok := videoExts[ext]; ok {
		return catalog.KindVideo, true
	}
	return "", false
}

// walkSources enumerates supported media files under each source path and
// calls fn for each. A source may be a single file or a directory tree.
// Hidden directories are skipped. Cancellation is cooperative: the walk
// stops between files.
func walkSources(ctx context.Context, sources []string, fn func(WalkedFile) error) error {
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := os.Stat(source)
		if err != nil {
			return err
		}

		if !info.IsDir() {
			if wf, ok := walkedFile(source, info); ok {
				if err := fn(wf); err != nil {
					return err
				}
			}
			continue
		}

		err = filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				// Unreadable entries are reported by the pipeline per file;
				// the walk itself keeps going.
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if info.IsDir() {
				if strings.HasPrefix(info.Name(), ".") && path != source {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			wf, ok := walkedFile(path, info)
			if !ok {
				return nil
			}
			return fn(wf)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func walkedFile(path string, info os.FileInfo) (WalkedFile, bool) {
	kind, ok := KindForPath(path)
	if !ok {
		return WalkedFile{}, false
	}
	return WalkedFile{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Kind:    kind,
	}, true
}
