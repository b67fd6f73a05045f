package journal

import (
	"database/sql"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stakevault/svault/shared/fileutil"
)

const (
	journalPath  = "journal"
	journalFname = "actions.db"
)

func newSQLiteStore(dataDir string) (*sql.DB, string, error) {
	dbPath := filepath.Join(dataDir, journalPath)
	hasDir, err := fileutil.HasDir(dbPath)
	if err != nil {
		return nil, "", err
	}
	if !hasDir {
		if err := fileutil.MkdirAll(dbPath); err != nil {
			return nil, "", err
		}
	}

	fpath := filepath.Join(dbPath, journalFname)
	db, err := sql.Open("sqlite3", fpath)
	if err != nil {
		return nil, "", err
	}

	return db, sqliteSchema, nil
}
