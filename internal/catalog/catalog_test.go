package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dirFS() fstest.MapFS {
	return fstest.MapFS{
		"002_add_col/up.sql":   {Data: []byte("ALTER TABLE users ADD COLUMN email TEXT;")},
		"002_add_col/down.sql": {Data: []byte("ALTER TABLE users DROP COLUMN email;")},
		"001_init/up.sql":      {Data: []byte("CREATE TABLE users (id INT);")},
		"001_init/down.sql":    {Data: []byte("DROP TABLE users;")},
		"003_no_down/up.sql":   {Data: []byte("CREATE INDEX idx ON users (id);")},
		".git/HEAD":            {Data: []byte("ref: refs/heads/main")},
		"README.md":            {Data: []byte("notes")},
	}
}

func TestCatalog_List(t *testing.T) {
	c := New(dirFS(), "migrations", Options{})

	ids, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init", "002_add_col", "003_no_down"}, ids)
}

func TestCatalog_List_Empty(t *testing.T) {
	c := NewDir(t.TempDir(), DefaultOptions())

	ids, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCatalog_List_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")
	c := NewDir(root, DefaultOptions())

	_, err := c.List()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), root)
}

func TestCatalog_Load(t *testing.T) {
	c := New(dirFS(), "migrations", DefaultOptions())

	tests := []struct {
		name    string
		id      string
		dir     Direction
		want    string
		missing bool
	}{
		{name: "up script", id: "001_init", dir: Up, want: "CREATE TABLE users (id INT);"},
		{name: "down script", id: "002_add_col", dir: Down, want: "ALTER TABLE users DROP COLUMN email;"},
		{name: "missing down script", id: "003_no_down", dir: Down, missing: true},
		{name: "unknown migration", id: "999_nope", dir: Up, missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Load(tt.id, tt.dir)
			if tt.missing {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMissingFile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_CustomFileNames(t *testing.T) {
	fsys := fstest.MapFS{
		"001_init/migrate.sql":  {Data: []byte("CREATE TABLE a (id INT);")},
		"001_init/rollback.sql": {Data: []byte("DROP TABLE a;")},
	}
	c := New(fsys, "db", Options{UpFile: "migrate.sql", DownFile: "rollback.sql"})

	up, err := c.Load("001_init", Up)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE a (id INT);", up)

	down, err := c.Load("001_init", Down)
	require.NoError(t, err)
	assert.Equal(t, "DROP TABLE a;", down)
}

func TestCatalog_FlatLayout(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_col.up.sql":   {Data: []byte("ALTER TABLE users ADD COLUMN email TEXT;")},
		"000001_init.up.sql":      {Data: []byte("CREATE TABLE users (id INT);")},
		"000001_init.down.sql":    {Data: []byte("DROP TABLE users;")},
		"000003_seed.up.json":     {Data: []byte("{}")},
		"notes.txt":               {Data: []byte("ignored")},
		"000004_nested/up.sql":    {Data: []byte("SELECT 1;")},
		".000005_hidden.up.sql":   {Data: []byte("SELECT 1;")},
		"000002_add_col.down.sql": {Data: []byte("ALTER TABLE users DROP COLUMN email;")},
	}
	c := New(fsys, "migrations", Options{Layout: LayoutFlat})

	ids, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_add_col"}, ids)

	up, err := c.Load("000002_add_col", Up)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE users ADD COLUMN email TEXT;", up)

	_, err = c.Load("000003_seed", Down)
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestCatalog_OnDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "001_init"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "001_init", "up.sql"), []byte("SELECT 1;"), 0o644))

	c := NewDir(root, DefaultOptions())
	assert.Equal(t, root, c.Root())

	ids, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init"}, ids)

	_, err = c.Load("001_init", Down)
	assert.ErrorIs(t, err, ErrMissingFile)
}

// List is sorted and never contains hidden entries, whatever the directory holds.
func TestProperty_Catalog_ListOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("list is sorted, unique and hides dot entries", prop.ForAll(
		func(names []string) bool {
			fsys := fstest.MapFS{}
			for _, n := range names {
				fsys[n+"/up.sql"] = &fstest.MapFile{Data: []byte("SELECT 1;")}
			}

			ids, err := New(fsys, "m", DefaultOptions()).List()
			if err != nil {
				return false
			}
			if !sort.StringsAreSorted(ids) {
				return false
			}
			for i, id := range ids {
				if strings.HasPrefix(id, ".") {
					return false
				}
				if i > 0 && ids[i-1] == id {
					return false
				}
			}

			want := map[string]struct{}{}
			for _, n := range names {
				if !strings.HasPrefix(n, ".") {
					want[n] = struct{}{}
				}
			}
			return len(want) == len(ids)
		},
		gen.SliceOf(gen.OneGenOf(
			gen.RegexMatch(`[0-9]{3}_[a-z]{1,6}`),
			gen.RegexMatch(`\.[a-z]{1,4}`),
		)),
	))

	properties.TestingRun(t)
}
