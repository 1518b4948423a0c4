package level

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/walma-app/walma/internal/logger"
)

//go:embed levels/*
var bundledFS embed.FS

// Catalog is an immutable, id-indexed set of levels.
type Catalog struct {
	levels map[string]*Level
	ids    []string
}

// NewCatalog indexes levels by id. Duplicate ids are an error.
func NewCatalog(levels ...*Level) (*Catalog, error) {
	c := &Catalog{levels: make(map[string]*Level, len(levels))}
	for _, l := range levels {
		if _, dup := c.levels[l.ID]; dup {
			return nil, fmt.Errorf("duplicate level id %q", l.ID)
		}
		c.levels[l.ID] = l
		c.ids = append(c.ids, l.ID)
	}
	slices.Sort(c.ids)
	return c, nil
}

// LoadCatalog decodes every level document in dir of fsys. Under
// LoadSkipMalformed, unreadable documents and malformed units are logged and
// skipped; under LoadStrict the first failure is returned.
func LoadCatalog(fsys fs.FS, dir string, policy LoadPolicy, log *logger.Logger) (*Catalog, error) {
	if log == nil {
		log = logger.Nop()
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read level dir %q: %w", dir, err)
	}

	var levels []*Level
	for _, e := range entries {
		if e.IsDir() || !IsLevelFile(e.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read level %q: %w", e.Name(), err)
		}
		lvl, err := Decode(e.Name(), data, policy)
		if err != nil {
			if policy == LoadStrict {
				return nil, err
			}
			log.Warn("skipping level document", "file", e.Name(), "error", err)
			continue
		}
		for _, mu := range lvl.Skipped {
			log.Warn("skipped malformed unit",
				"level", lvl.ID,
				"ordinal", mu.Ordinal,
				"field", mu.Field,
				"reason", mu.Reason,
			)
		}
		levels = append(levels, lvl)
	}
	return NewCatalog(levels...)
}

// Bundled returns the sample levels compiled into the binary.
func Bundled(log *logger.Logger) (*Catalog, error) {
	return LoadCatalog(bundledFS, "levels", LoadStrict, log)
}

// Get returns the level with id.
func (c *Catalog) Get(id string) (*Level, bool) {
	l, ok := c.levels[id]
	return l, ok
}

// List returns all levels sorted by id.
func (c *Catalog) List() []*Level {
	out := make([]*Level, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.levels[id])
	}
	return out
}

// Len returns the number of levels.
func (c *Catalog) Len() int { return len(c.ids) }
