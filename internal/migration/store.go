package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	dbkiterrors "github.com/onyx-go/dbkit/internal/errors"
	"github.com/onyx-go/dbkit/internal/logging"
)

// fileRecord is the TOML wire shape of §6's migration file format. Field
// names match the spec's top-level keys. Unknown top-level keys are ignored
// on decode; they are not kept on the Migration, so Save does not write
// them back.
type fileRecord struct {
	ID           string            `toml:"id"`
	Name         string            `toml:"name"`
	Description  string            `toml:"description,omitempty"`
	App          string            `toml:"app,omitempty"`
	Dependencies []string          `toml:"dependencies"`
	Reversible   bool              `toml:"reversible"`
	RawSQLUp     string            `toml:"raw_sql_up,omitempty"`
	RawSQLDown   string            `toml:"raw_sql_down,omitempty"`
	Checksum     string            `toml:"checksum"`
	CreatedAt    time.Time         `toml:"created_at"`
	Metadata     map[string]string `toml:"metadata"`
	Operations   []Operation       `toml:"operations"`
}

func toFileRecord(m Migration) fileRecord {
	return fileRecord{
		ID: m.ID, Name: m.Name, Description: m.Description, App: m.App,
		Dependencies: m.Dependencies, Reversible: m.Reversible,
		RawSQLUp: m.RawSQLUp, RawSQLDown: m.RawSQLDown, Checksum: m.Checksum,
		CreatedAt: m.CreatedAt, Metadata: m.Metadata, Operations: m.Operations,
	}
}

func (r fileRecord) toMigration() Migration {
	return Migration{
		ID: r.ID, Name: r.Name, Description: r.Description, App: r.App,
		Dependencies: r.Dependencies, Reversible: r.Reversible,
		RawSQLUp: r.RawSQLUp, RawSQLDown: r.RawSQLDown, Checksum: r.Checksum,
		CreatedAt: r.CreatedAt, Metadata: r.Metadata, Operations: r.Operations,
	}
}

// Store is the file-backed migration record store of §4.F: migrations
// live under <root>/[<app>/]<id>_<name>.<ext>.
type Store struct {
	Root   string
	Ext    string // defaults to "toml"
	Logger logging.Logger
}

// NewStore returns a Store rooted at root, defaulting Ext to "toml" and
// Logger to a no-op sink.
func NewStore(root string) *Store {
	return &Store{Root: root, Ext: "toml", Logger: logging.NewNullLogger()}
}

var idSequencePattern = regexp.MustCompile(`^\d{8}_\d{4}$`)
var idTimestampPattern = regexp.MustCompile(`^\d{8}_\d{6}$`)

// NewTimestampID returns a "YYYYMMDD_HHMMSS" id in UTC for the given
// instant, per §4.F.
func NewTimestampID(t time.Time) string {
	return t.UTC().Format("20060102_150405")
}

// filename returns the path a migration with this id/name/app would live
// at under the store's root.
func (s *Store) filename(id, name, app string) string {
	base := fmt.Sprintf("%s_%s.%s", id, name, s.Ext)
	if app != "" {
		return filepath.Join(s.Root, app, base)
	}
	return filepath.Join(s.Root, base)
}

// Save writes m to its canonical path, creating the app subdirectory (if
// any) as needed.
func (s *Store) Save(m Migration) error {
	path := s.filename(m.ID, m.Name, m.App)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &dbkiterrors.IoError{Path: filepath.Dir(path), Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &dbkiterrors.IoError{Path: path, Err: err}
	}
	defer f.Close()
	enc := toml.NewEncoder(f)
	if err := enc.Encode(toFileRecord(m)); err != nil {
		return fmt.Errorf("migration store: encode %s: %w", path, err)
	}
	return nil
}

// Load reads and parses a single migration file.
func (s *Store) Load(path string) (Migration, error) {
	var rec fileRecord
	if _, err := toml.DecodeFile(path, &rec); err != nil {
		return Migration{}, fmt.Errorf("migration store: decode %s: %w", path, err)
	}
	return rec.toMigration(), nil
}

// LoadAll walks Root, parsing every file with the store's extension,
// ignoring unparseable ones with a warning, and returns them sorted by ID
// ascending, per §4.F.
func (s *Store) LoadAll() ([]Migration, error) {
	var out []Migration
	suffix := "." + s.Ext
	err := filepath.WalkDir(s.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, suffix) {
			return nil
		}
		m, loadErr := s.Load(path)
		if loadErr != nil {
			s.Logger.Warn("migration store: skipping unparseable file", map[string]interface{}{
				"path": path, "error": loadErr.Error(),
			})
			return nil
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("migration store: walk %s: %w", s.Root, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ValidID reports whether id matches one of §4.F's two id shapes:
// YYYYMMDD_HHMMSS or YYYYMMDD_NNNN.
func ValidID(id string) bool {
	return idTimestampPattern.MatchString(id) || idSequencePattern.MatchString(id)
}
