package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4/source"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrCatalogUnavailable is returned when the migrations root cannot be read.
	ErrCatalogUnavailable = errors.New("migrations directory unavailable")

	// ErrMissingFile is returned when a migration has no script for a direction.
	ErrMissingFile = errors.New("migration file not found")
)

// =============================================================================
// Types
// =============================================================================

// Direction selects the up or down script of a migration.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Layout describes how migrations are arranged on disk.
type Layout string

const (
	// LayoutDirectory stores each migration in <root>/<id>/{up,down}.sql.
	LayoutDirectory Layout = "directory"
	// LayoutFlat stores migrations as <root>/<version>_<name>.{up,down}.sql.
	LayoutFlat Layout = "flat"
)

// Options configures a Catalog.
type Options struct {
	Layout   Layout
	UpFile   string
	DownFile string
}

// DefaultOptions returns the directory layout with up.sql / down.sql scripts.
func DefaultOptions() Options {
	return Options{
		Layout:   LayoutDirectory,
		UpFile:   "up.sql",
		DownFile: "down.sql",
	}
}

// Catalog lists and loads migrations from a file system.
type Catalog struct {
	fsys fs.FS
	root string
	opts Options
}

// New creates a Catalog over fsys. root is only used in error messages.
func New(fsys fs.FS, root string, opts Options) *Catalog {
	def := DefaultOptions()
	if opts.Layout == "" {
		opts.Layout = def.Layout
	}
	if opts.UpFile == "" {
		opts.UpFile = def.UpFile
	}
	if opts.DownFile == "" {
		opts.DownFile = def.DownFile
	}
	return &Catalog{fsys: fsys, root: root, opts: opts}
}

// NewDir creates a Catalog rooted at a directory on the local disk.
func NewDir(root string, opts Options) *Catalog {
	return New(os.DirFS(root), root, opts)
}

// Root returns the directory the catalog reads from.
func (c *Catalog) Root() string {
	return c.root
}

// =============================================================================
// Listing and Loading
// =============================================================================

// List returns migration identifiers in lexicographic order.
// Entries whose name starts with a dot are ignored, as are files in the
// directory layout and subdirectories in the flat one.
func (c *Catalog) List() ([]string, error) {
	entries, err := fs.ReadDir(c.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, c.root, err)
	}

	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		id := name
		switch c.opts.Layout {
		case LayoutDirectory:
			if !e.IsDir() {
				continue
			}
		case LayoutFlat:
			if e.IsDir() {
				continue
			}
			m, err := source.DefaultParse(name)
			if err != nil || !strings.HasSuffix(name, ".sql") {
				continue
			}
			id = strings.TrimSuffix(name, "."+string(m.Direction)+".sql")
		}

		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids, nil
}

// Load reads the script of a migration in the given direction.
// It returns ErrMissingFile when the script does not exist.
func (c *Catalog) Load(id string, dir Direction) (string, error) {
	name, err := c.scriptPath(id, dir)
	if err != nil {
		return "", err
	}

	data, err := fs.ReadFile(c.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissingFile, path.Join(c.root, name))
		}
		return "", fmt.Errorf("read %s: %w", path.Join(c.root, name), err)
	}

	return string(data), nil
}

func (c *Catalog) scriptPath(id string, dir Direction) (string, error) {
	switch c.opts.Layout {
	case LayoutFlat:
		return fmt.Sprintf("%s.%s.sql", id, dir), nil
	case LayoutDirectory:
		file := c.opts.UpFile
		if dir == Down {
			file = c.opts.DownFile
		}
		return path.Join(id, file), nil
	default:
		return "", fmt.Errorf("unknown migrations layout %q", c.opts.Layout)
	}
}
