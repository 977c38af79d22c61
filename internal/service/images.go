package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imageClip is the clip text that references an uploaded image.
func imageClip(name, url string) string {
	return fmt.Sprintf("![%s](%s)", name, url)
}

// AddImage uploads the file at path to the image storage and adds a clip
// linking to it.
func (e *SyncEngine) AddImage(ctx context.Context, path string) error {
	if err := e.acceptMutations(); err != nil {
		return err
	}
	if e.blobs == nil {
		return ErrBlobStorageDisabled
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening image: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	url, err := e.blobs.Upload(ctx, name, f)
	if err != nil {
		mapped := mapAdapterError(err)
		e.logger.Warn().Err(mapped).Str("image", name).Msg("image upload failed")
		return mapped
	}

	e.eventBinder().OnNotify("Image uploaded", fmt.Sprintf("%s is now available on your other devices", name))
	return e.AddClip(imageClip(name, url))
}

// RemoveImage deletes the image from storage and, unless onlyFromStorage is
// set, removes the clips that link to it.
func (e *SyncEngine) RemoveImage(ctx context.Context, name string, onlyFromStorage bool) error {
	if err := e.acceptMutations(); err != nil {
		return err
	}
	if e.blobs == nil {
		return ErrBlobStorageDisabled
	}

	if err := e.blobs.Delete(ctx, name); err != nil {
		mapped := mapAdapterError(err)
		e.logger.Warn().Err(mapped).Str("image", name).Msg("image delete failed")
		return mapped
	}
	if onlyFromStorage {
		return nil
	}

	// the link embeds a presigned URL, so clips are matched by name
	texts := e.imageClipTexts(name)
	if len(texts) == 0 {
		return nil
	}
	return e.RemoveClips(texts)
}

// RemoveImages removes every named image and its clips.
func (e *SyncEngine) RemoveImages(ctx context.Context, names []string) error {
	if e.blobs == nil {
		return ErrBlobStorageDisabled
	}

	var errs []error
	for _, name := range names {
		if err := e.RemoveImage(ctx, name, false); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (e *SyncEngine) imageClipTexts(name string) []string {
	prefix := "![" + name + "]("

	e.profMu.Lock()
	defer e.profMu.Unlock()
	if e.profile == nil {
		return nil
	}

	var texts []string
	for _, c := range e.profile.Clips {
		if text := e.plaintext(c); strings.HasPrefix(text, prefix) {
			texts = append(texts, text)
		}
	}
	return texts
}
