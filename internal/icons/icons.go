// Package icons picks the image shown next to an outline item.
package icons

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/golang-lru/v2"
)

// Suffix is appended to a STIX type tag to name its asset.
const Suffix = "-round-flat-300-dpi.png"

// UnknownType is the tag of the generic asset used when a type has none.
const UnknownType = "x"

// Icon names an asset for light and dark themes. Paths are joined onto the
// resolver's root.
type Icon struct {
	Name  string `json:"name"`
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

// IsZero reports whether no icon was chosen.
func (i Icon) IsZero() bool { return i.Light == "" && i.Dark == "" }

// Options locates the assets. Directories are slash-separated and relative
// to the asset filesystem.
type Options struct {
	// Root is prepended to every returned path.
	Root        string
	STIXDir     string
	DarkSTIXDir string
	LightDir    string
	DarkDir     string
	CacheSize   int
}

// DefaultOptions matches the layout of the bundled resources directory.
func DefaultOptions() Options {
	return Options{
		STIXDir:     "resources/stix",
		DarkSTIXDir: "resources/stix/dark",
		LightDir:    "resources/light",
		DarkDir:     "resources/dark",
		CacheSize:   256,
	}
}

// Resolver maps STIX type tags and scalar kinds to icons. Lookups of type
// tags stat the filesystem once and are then served from an LRU cache.
type Resolver struct {
	fsys  fs.FS
	opts  Options
	cache *lru.Cache[string, Icon]
}

// New returns a resolver over fsys. A nil fsys has no assets, so every type
// tag resolves to the generic icon.
func New(fsys fs.FS, opts Options) (*Resolver, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultOptions().CacheSize
	}
	cache, err := lru.New[string, Icon](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{fsys: fsys, opts: opts, cache: cache}, nil
}

// STIX returns the icon for a type tag: the light asset if it exists, else
// the dark asset, else the generic one. It never fails.
func (r *Resolver) STIX(tag string) Icon {
	if icon, ok := r.cache.Get(tag); ok {
		return icon
	}
	icon := r.lookupSTIX(tag)
	r.cache.Add(tag, icon)
	return icon
}

func (r *Resolver) lookupSTIX(tag string) Icon {
	name := tag + Suffix
	if validTag(tag) {
		light := path.Join(r.opts.STIXDir, name)
		dark := path.Join(r.opts.DarkSTIXDir, name)
		switch {
		case r.exists(light) && r.exists(dark):
			return r.icon(tag, light, dark)
		case r.exists(light):
			return r.icon(tag, light, light)
		case r.exists(dark):
			return r.icon(tag, dark, dark)
		}
	}
	generic := path.Join(r.opts.STIXDir, UnknownType+Suffix)
	return r.icon(UnknownType, generic, generic)
}

// Builtin returns the fixed icon for boolean, string and number values.
func (r *Resolver) Builtin(kind string) (Icon, bool) {
	switch kind {
	case "boolean", "string", "number":
		return r.icon(kind,
			path.Join(r.opts.LightDir, kind+".svg"),
			path.Join(r.opts.DarkDir, kind+".svg")), true
	}
	return Icon{}, false
}

func (r *Resolver) exists(name string) bool {
	if r.fsys == nil {
		return false
	}
	info, err := fs.Stat(r.fsys, name)
	return err == nil && !info.IsDir()
}

func (r *Resolver) icon(name, light, dark string) Icon {
	return Icon{Name: name, Light: r.abs(light), Dark: r.abs(dark)}
}

func (r *Resolver) abs(rel string) string {
	if r.opts.Root == "" {
		return rel
	}
	return filepath.Join(r.opts.Root, filepath.FromSlash(rel))
}

// validTag rejects tags that would escape the asset directory.
func validTag(tag string) bool {
	return tag != "" && !strings.ContainsAny(tag, `/\`) && tag != "." && tag != ".." && fs.ValidPath(tag+Suffix)
}
