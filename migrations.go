package eventuate

import "embed"

// MigrationFiles contains the SQL migration files embedded in the binary.
// Apply them with your preferred migration tool (goose, golang-migrate,
// atlas, etc.); this package ships no migration runner of its own.
//
// Example with goose:
//
//	import (
//	    "github.com/pressly/goose/v3"
//	    "github.com/coregx/eventuate"
//	)
//
//	goose.SetBaseFS(eventuate.MigrationFiles)
//	if err := goose.Up(db, "migrations"); err != nil {
//	    log.Fatal(err)
//	}
//
//go:embed migrations/*.sql
var MigrationFiles embed.FS
