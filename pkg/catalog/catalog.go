// Package catalog persists the set of segment ids that make up a
// Dictionary generation. It stores a single meta.json file inside the
// dictionary directory and is responsible for garbage-collecting
// segment files that meta.json no longer references.
//
// Catalog is built against hackpadfs.FS rather than the os package
// directly so it can be exercised against an in-memory filesystem in
// tests, the same split the reference implementation's author noted
// should exist between small metadata persistence and the
// memory-mapped segment files themselves (those still use the os
// package, see pkg/segment).
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
	"github.com/hack-pad/hackpadfs"
)

const metaFileName = "meta.json"
const dirPerm = 0o755
const filePerm = 0o644

// metaFile is the on-disk JSON shape of meta.json.
type metaFile struct {
	Dicts []string `json:"dicts"`
}

// Catalog tracks the segment ids currently belonging to a dictionary
// generation and persists that set to meta.json.
type Catalog struct {
	fs       hackpadfs.FS
	dir      string
	Segments []uuid.UUID
}

func metaPath(dir string) string {
	if dir == "" || dir == "." {
		return metaFileName
	}
	return strings.TrimSuffix(dir, "/") + "/" + metaFileName
}

func tmpMetaPath(dir string) string {
	return metaPath(dir) + ".tmp"
}

// Open loads the catalog rooted at dir, creating an empty one (and the
// directory itself) if none exists yet.
func Open(fsys hackpadfs.FS, dir string) (*Catalog, error) {
	if err := hackpadfs.MkdirAll(fsys, dir, dirPerm); err != nil {
		return nil, fmt.Errorf("catalog.Open: mkdir %s: %w", dir, err)
	}

	c := &Catalog{fs: fsys, dir: dir}

	data, err := hackpadfs.ReadFile(fsys, metaPath(dir))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog.Open: read %s: %w", metaPath(dir), err)
		}
		// No meta.json yet: treat as a fresh, empty catalog and persist it
		// immediately so the directory always has a readable meta.json.
		if err := c.Save(); err != nil {
			return nil, fmt.Errorf("catalog.Open: initialize %s: %w", metaPath(dir), err)
		}
		return c, nil
	}

	var m metaFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("catalog.Open: parse %s: %w", metaPath(dir), err)
	}

	segments := make([]uuid.UUID, 0, len(m.Dicts))
	for _, s := range m.Dicts {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("catalog.Open: bad segment id %q in %s: %w", s, metaPath(dir), err)
		}
		segments = append(segments, id)
	}
	c.Segments = segments
	return c, nil
}

// Save writes the current segment set to meta.json, writing to a
// temporary file first and renaming it into place so a crash mid-write
// never leaves a truncated or partially-written meta.json behind.
func (c *Catalog) Save() error {
	m := metaFile{Dicts: make([]string, len(c.Segments))}
	for i, id := range c.Segments {
		m.Dicts[i] = id.String()
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("catalog.Save: marshal: %w", err)
	}

	tmp := tmpMetaPath(c.dir)
	if err := hackpadfs.WriteFullFile(c.fs, tmp, data, filePerm); err != nil {
		return fmt.Errorf("catalog.Save: write %s: %w", tmp, err)
	}
	if err := hackpadfs.Rename(c.fs, tmp, metaPath(c.dir)); err != nil {
		return fmt.Errorf("catalog.Save: rename %s to %s: %w", tmp, metaPath(c.dir), err)
	}
	return nil
}

// Has reports whether id is currently tracked by the catalog.
func (c *Catalog) Has(id uuid.UUID) bool {
	for _, s := range c.Segments {
		if s == id {
			return true
		}
	}
	return false
}

// Add appends id to the tracked segment set. It does not persist the
// change; call Save to do that.
func (c *Catalog) Add(id uuid.UUID) {
	c.Segments = append(c.Segments, id)
}

// Replace swaps the tracked segment set wholesale, used after a merge or
// prune rewrite replaces several old segments with one new one. It does
// not persist the change; call Save to do that.
func (c *Catalog) Replace(ids []uuid.UUID) {
	c.Segments = ids
}

// segmentExt is the file extension segment.FileName appends after a
// UUID; GC recognizes orphaned segment files by stripping it.
const segmentExt = ".dict"

// GC removes any *.dict file in the catalog's directory whose id is not
// currently tracked. These accumulate when a process crashes between
// writing a new segment file and persisting the meta.json that
// references it.
func (c *Catalog) GC() error {
	entries, err := hackpadfs.ReadDir(c.fs, c.dir)
	if err != nil {
		return fmt.Errorf("catalog.GC: read dir %s: %w", c.dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, segmentExt) {
			continue
		}
		stem := strings.TrimSuffix(name, segmentExt)
		id, err := uuid.Parse(stem)
		if err != nil {
			// Not a segment file we recognize; leave it alone.
			continue
		}
		if c.Has(id) {
			continue
		}
		path := strings.TrimSuffix(c.dir, "/") + "/" + name
		if err := hackpadfs.Remove(c.fs, path); err != nil {
			return fmt.Errorf("catalog.GC: remove %s: %w", path, err)
		}
	}
	return nil
}
