// Package memory provides in-process stores backed by go-memdb.
// Data lives as long as the process; it is the fallback when no
// persistent medium is available.
package memory

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const (
	tableEntities   = "entities"
	tableMeta       = "meta"
	tableSyncStates = "sync_states"
)

// DB is the shared in-memory database behind the memory stores.
type DB struct {
	db *memdb.MemDB
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableEntities: {
				Name: tableEntities,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:   "id",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "Kind"},
								&memdb.IntFieldIndex{Field: "ID"},
							},
						},
					},
					"kind": {
						Name:    "kind",
						Indexer: &memdb.StringFieldIndex{Field: "Kind"},
					},
				},
			},
			tableMeta: {
				Name: tableMeta,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
			tableSyncStates: {
				Name: tableSyncStates,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Kind"},
					},
				},
			},
		},
	}
}

// Open creates an empty database.
func Open() (*DB, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &DB{db: db}, nil
}

// MustOpen is Open for callers that cannot recover, such as fallbacks wired at startup.
func MustOpen() *DB {
	db, err := Open()
	if err != nil {
		panic(err)
	}
	return db
}
