package store

import (
	"context"
	"fmt"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

var (
	_ Store = (*Mongo)(nil)
	_ Store = (*SQLite)(nil)
)

// Options selects and configures a backend.
type Options struct {
	Driver     string
	MongoURI   string
	Database   string
	SQLitePath string
}

// Open returns the Store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMongo:
		m, err := OpenMongo(ctx, opts.MongoURI, opts.Database)
		if err != nil {
			return nil, err
		}
		return m, nil
	case DriverSQLite:
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
