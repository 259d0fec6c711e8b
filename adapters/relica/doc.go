// Package relica provides repository implementations using the Relica
// query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database
// query builder for Go with zero production dependencies.
//
// This package implements eventuate's two storage interfaces:
//   - eventuate.OutboxStore, against the message table
//   - eventuate.InboxStore, against the received_messages table
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/eventuate"
//	    "github.com/coregx/eventuate/adapters/relica"
//	    _ "github.com/go-sql-driver/mysql"
//	)
//
//	db, err := sql.Open("mysql", "user:pass@tcp(localhost:3306)/eventuate?parseTime=true")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outbox := relica.NewOutboxStore(db, "mysql")
//	inbox := relica.NewInboxStore(db, "mysql")
//
//	producer, err := eventuate.NewProducer(outbox, eventuate.WithProducerLogger(logger))
package relica
