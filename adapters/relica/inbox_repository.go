package relica

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/coregx/eventuate"
	"github.com/coregx/relica"
)

// inboxRow is the received_messages table row shape relica marshals into.
type inboxRow struct {
	MessageID    string    `db:"message_id"`
	ConsumerID   string    `db:"consumer_id"`
	CreationTime time.Time `db:"creation_time"`
}

// InboxStore implements eventuate.InboxStore against the
// received_messages table using the Relica query builder.
type InboxStore struct {
	db          *relica.DB
	driverName  string
	tablePrefix string
}

// NewInboxStore creates an InboxStore with no table prefix.
func NewInboxStore(sqlDB *sql.DB, driverName string) *InboxStore {
	return &InboxStore{db: relica.WrapDB(sqlDB, driverName), driverName: driverName}
}

// NewInboxStoreWithPrefix creates an InboxStore with a custom table prefix.
func NewInboxStoreWithPrefix(sqlDB *sql.DB, driverName, prefix string) *InboxStore {
	return &InboxStore{db: relica.WrapDB(sqlDB, driverName), driverName: driverName, tablePrefix: prefix}
}

func (r *InboxStore) tableName() string {
	return r.tablePrefix + "received_messages"
}

// TryInsert attempts to claim (messageID, subscriberID). A primary-key
// conflict is the duplicate-detection gate: it is reported as
// inserted=false, err=nil rather than propagated as an error.
//
// When ctx carries a transaction opened by UnitOfWork.RunInTransaction,
// the insert runs on that transaction directly (via database/sql) so it
// commits or rolls back with the rest of the decorator chain. Outside a
// transaction it falls back to the Relica query builder on the plain
// connection.
func (r *InboxStore) TryInsert(ctx context.Context, messageID, subscriberID string) (bool, error) {
	if tx, ok := TxFromContext(ctx); ok {
		query := "INSERT INTO " + r.tableName() + " (message_id, consumer_id) VALUES " + r.placeholders(2)
		_, err := tx.ExecContext(ctx, query, messageID, subscriberID)
		if err == nil {
			return true, nil
		}
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, eventuate.NewErrorWithCause(eventuate.ErrCodeDatabase, "failed to insert inbox row", err)
	}

	row := inboxRow{MessageID: messageID, ConsumerID: subscriberID}
	err := r.db.WithContext(ctx).Model(&row).Table(r.tableName()).Insert()
	if err == nil {
		return true, nil
	}
	if isDuplicateKeyError(err) {
		return false, nil
	}
	return false, eventuate.NewErrorWithCause(eventuate.ErrCodeDatabase, "failed to insert inbox row", err)
}

// placeholders builds a parenthesized placeholder list for n positional
// arguments in the dialect the configured driver expects: PostgreSQL uses
// $1, $2, ...; MySQL and SQLite use repeated ?.
func (r *InboxStore) placeholders(n int) string {
	if r.driverName != "postgres" {
		return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// isDuplicateKeyError recognizes the primary-key violation error text
// returned by the drivers this module wires: MySQL, PostgreSQL, SQLite.
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || // mysql
		strings.Contains(msg, "unique constraint") || // postgres, sqlite (modern)
		strings.Contains(msg, "unique_violation") || // postgres
		strings.Contains(msg, "constraint failed") // sqlite3
}
