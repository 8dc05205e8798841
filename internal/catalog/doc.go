// Package catalog lists migration identifiers from a directory tree and loads
// their up and down scripts. Both the one-directory-per-migration layout and the
// flat <version>_<name>.up.sql layout are supported.
package catalog
