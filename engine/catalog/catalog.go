package catalog

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-asset/engine/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS assets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	source_path TEXT NOT NULL,
	meshes      INTEGER NOT NULL,
	vertices    INTEGER NOT NULL,
	indices     INTEGER NOT NULL,
	materials   INTEGER NOT NULL,
	bones       INTEGER NOT NULL,
	animations  INTEGER NOT NULL,
	loaded_at   INTEGER NOT NULL
)`

// Entry is the summary of one loaded model.
type Entry struct {
	ID         uuid.UUID
	Name       string
	SourcePath string
	Meshes     int
	Vertices   int
	Indices    int
	Materials  int
	Bones      int
	Animations int
	LoadedAt   time.Time
}

// catalogImpl is the implementation of the Catalog interface.
type catalogImpl struct {
	db *sql.DB
}

// Catalog records load summaries in a SQLite database.
type Catalog interface {
	// Record stores the summary of a load, replacing an entry with the same ID.
	//
	// Parameters:
	//   - ctx: the context bounding the write
	//   - entry: the load summary
	//
	// Returns:
	//   - error: error if the write fails
	Record(ctx context.Context, entry Entry) error

	// List returns every entry ordered by load time, oldest first.
	//
	// Parameters:
	//   - ctx: the context bounding the query
	//
	// Returns:
	//   - []Entry: the stored entries
	//   - error: error if the query fails
	List(ctx context.Context) ([]Entry, error)

	// Close releases the database handle.
	//
	// Returns:
	//   - error: error if closing fails
	Close() error
}

var _ Catalog = &catalogImpl{}

// Open opens or creates the catalog database at path.
//
// Parameters:
//   - path: the database file, or ":memory:"
//
// Returns:
//   - Catalog: the opened catalog
//   - error: error if the database cannot be opened or migrated
func Open(path string) (Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", path)
	}
	// A single connection keeps an in-memory database alive between calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create catalog schema in %s", path)
	}
	return &catalogImpl{db: db}, nil
}

// EntryFromModel summarizes a loaded model.
//
// Parameters:
//   - m: the loaded model
//
// Returns:
//   - Entry: the summary, stamped with the current time
func EntryFromModel(m model.Model) Entry {
	entry := Entry{
		ID:         m.ID(),
		Name:       m.Name(),
		SourcePath: m.SourcePath(),
		Meshes:     len(m.Meshes()),
		Indices:    m.IndexCount(),
		Materials:  len(m.ImportedMaterials()),
		Animations: m.AnimationCount(),
		LoadedAt:   time.Now(),
	}
	for _, mesh := range m.Meshes() {
		entry.Vertices += mesh.VertexCount()
	}
	if skeleton := m.Skeleton(); skeleton != nil {
		entry.Bones = len(skeleton.Bones)
	}
	return entry
}

func (c *catalogImpl) Record(ctx context.Context, entry Entry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO assets (id, name, source_path, meshes, vertices, indices, materials, bones, animations, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Name, entry.SourcePath, entry.Meshes, entry.Vertices, entry.Indices,
		entry.Materials, entry.Bones, entry.Animations, entry.LoadedAt.UnixNano(),
	)
	if err != nil {
		return errors.Wrapf(err, "record %s", entry.Name)
	}
	log.Printf("[Catalog] recorded %s (%s)", entry.Name, entry.ID)
	return nil
}

func (c *catalogImpl) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, source_path, meshes, vertices, indices, materials, bones, animations, loaded_at
		FROM assets ORDER BY loaded_at, name`)
	if err != nil {
		return nil, errors.Wrap(err, "list catalog")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			id       string
			loadedAt int64
		)
		if err := rows.Scan(&id, &e.Name, &e.SourcePath, &e.Meshes, &e.Vertices, &e.Indices,
			&e.Materials, &e.Bones, &e.Animations, &loadedAt); err != nil {
			return nil, errors.Wrap(err, "scan catalog row")
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.Wrapf(err, "catalog row %q", id)
		}
		e.LoadedAt = time.Unix(0, loadedAt)
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "iterate catalog")
}

func (c *catalogImpl) Close() error {
	return c.db.Close()
}
