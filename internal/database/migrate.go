package database

import (
	"cmp"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Migration is one numbered schema change and its rollback.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// ID returns the file stem, e.g. 000001_init_schema.
func (m Migration) ID() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var migrationFileRE = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.(up|down)\.sql$`)

var loadEmbeddedMigrations = sync.OnceValues(func() ([]Migration, error) {
	return parseMigrations(embeddedMigrations, "migrations")
})

// Migrations returns the embedded migrations in version order.
func Migrations() ([]Migration, error) {
	return loadEmbeddedMigrations()
}

// parseMigrations reads NNNNNN_name.up.sql / NNNNNN_name.down.sql pairs from dir.
// A stray file, a version with two names or a missing half is an error.
func parseMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parts := migrationFileRE.FindStringSubmatch(entry.Name())
		if parts == nil {
			return nil, fmt.Errorf("migration file %q is not named NNNNNN_name.up.sql or NNNNNN_name.down.sql", entry.Name())
		}
		version, _ := strconv.Atoi(parts[1])
		if version == 0 {
			return nil, fmt.Errorf("migration file %q: versions start at 000001", entry.Name())
		}

		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: parts[2]}
			byVersion[version] = m
		} else if m.Name != parts[2] {
			return nil, fmt.Errorf("migration %06d is named both %q and %q", version, m.Name, parts[2])
		}
		if parts[3] == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.Up) == "" || strings.TrimSpace(m.Down) == "" {
			return nil, fmt.Errorf("migration %s needs non-empty up and down scripts", m.ID())
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

func findMigration(ms []Migration, version int) (Migration, bool) {
	i := slices.IndexFunc(ms, func(m Migration) bool { return m.Version == version })
	if i < 0 {
		return Migration{}, false
	}
	return ms[i], true
}
