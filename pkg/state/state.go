package state

import (
	"os"
	"path/filepath"
)

// Paths groups the state directories kept under the DB path.
type Paths struct {
	State   string
	Crash   string
	Abort   string
	Sweeper string
}

// PathsVar is populated once during startup by Init.
var PathsVar Paths

// Init derives and creates the state directories under dbPath.
func Init(dbPath string) error {
	base := filepath.Join(dbPath, "state")
	PathsVar = Paths{
		State:   base,
		Crash:   filepath.Join(base, "crash"),
		Abort:   filepath.Join(base, "abort"),
		Sweeper: filepath.Join(base, "sweeper"),
	}
	for _, d := range []string{PathsVar.State, PathsVar.Crash, PathsVar.Abort, PathsVar.Sweeper} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}
