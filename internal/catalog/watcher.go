package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch loads path and reloads it whenever it is written, created or renamed
// into place, until ctx is done. The parent directory is watched because
// editors usually replace files instead of writing them in place.
func (c *Catalog) Watch(ctx context.Context, path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := c.LoadFile(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	go c.watchLoop(ctx, watcher, path)

	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := c.LoadFile(path); err != nil {
				c.logger.Warn("failed to reload catalog", "path", path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("catalog watcher error", "error", err)
		}
	}
}
