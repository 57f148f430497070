/* ndnrepo - NDN Named Content Repository
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package ingest publishes the files of a directory as versioned objects.
package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/object"
	"github.com/named-data/ndnrepo/repo"
)

// settleDelay coalesces the burst of events produced by a single file write.
const settleDelay = 100 * time.Millisecond

// EventCallback is called after a file was published. gone reports a tombstone for a removed file.
type EventCallback func(name ndn.Name, gone bool)

// Watcher publishes every file under a directory as a versioned object named
// prefix/<relative path components>. Writes publish a new version and
// removals publish a tombstone.
type Watcher struct {
	repo   *repo.Repository
	dir    string
	prefix ndn.Name
	opts   object.Options
	cb     EventCallback
}

// NewWatcher creates a watcher for dir. cb may be nil.
func NewWatcher(r *repo.Repository, dir string, prefix ndn.Name, cb EventCallback) *Watcher {
	return &Watcher{repo: r, dir: dir, prefix: prefix, cb: cb}
}

func (w *Watcher) String() string {
	return "IngestWatcher, " + w.dir
}

// NameFor returns the object name of the file at path.
func (w *Watcher) NameFor(path string) (ndn.Name, error) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return ndn.Name{}, err
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	components := make([]ndn.Component, 0, len(parts))
	for _, part := range parts {
		components = append(components, ndn.NewStringComponent(part))
	}
	return w.prefix.Append(components...), nil
}

// Run publishes the files already present, then watches for changes until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := os.MkdirAll(w.dir, os.ModePerm); err != nil {
		return err
	}
	if err := addDirsRecursive(watcher, w.dir); err != nil {
		return err
	}
	core.LogInfo(w, "Watching under ", w.prefix)
	w.publishTree(w.dir)

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time
	schedule := func(path string) {
		pending[path] = struct{}{}
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			core.LogInfo(w, "Stopped")
			return nil

		case <-settleCh:
			for path := range pending {
				w.publishFile(path)
			}
			clear(pending)

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(watcher, ev.Name); addErr != nil {
						core.LogWarn(w, "Unable to watch new directory ", ev.Name, ": ", addErr)
						continue
					}
					w.publishTree(ev.Name)
					continue
				}
				schedule(ev.Name)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, ev.Name)
				w.publishTombstone(ev.Name)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			core.LogError(w, "Watcher error: ", watchErr)
		}
	}
}

func (w *Watcher) publishTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		w.publishFile(path)
		return nil
	})
}

func (w *Watcher) publishFile(path string) {
	name, err := w.NameFor(path)
	if err != nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// Removed before it settled
		core.LogDebug(w, "Unable to read ", path, ": ", err)
		return
	}
	if _, err = object.Save(w.repo, name, data, object.BytesCodec{}, w.opts); err != nil {
		core.LogWarn(w, "Unable to publish ", path, ": ", err)
		return
	}
	core.LogDebug(w, "Published ", path, " as ", name)
	if w.cb != nil {
		w.cb(name, false)
	}
}

func (w *Watcher) publishTombstone(path string) {
	name, err := w.NameFor(path)
	if err != nil {
		return
	}
	if _, err = object.Delete(w.repo, name, w.opts); err != nil {
		core.LogWarn(w, "Unable to publish removal of ", path, ": ", err)
		return
	}
	core.LogDebug(w, "Published removal of ", path)
	if w.cb != nil {
		w.cb(name, true)
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
