package relica

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/coregx/eventuate"
	"github.com/coregx/relica"
)

// outboxRow is the message table row shape relica marshals into.
type outboxRow struct {
	ID           string     `db:"id"`
	Destination  string     `db:"destination"`
	Headers      string     `db:"headers"`
	Payload      string     `db:"payload"`
	CreationTime time.Time  `db:"creation_time"`
	Published    int        `db:"published"`
}

// OutboxStore implements eventuate.OutboxStore against the message table
// using the Relica query builder.
type OutboxStore struct {
	db          *relica.DB
	tablePrefix string
}

// NewOutboxStore creates an OutboxStore with no table prefix.
func NewOutboxStore(sqlDB *sql.DB, driverName string) *OutboxStore {
	return &OutboxStore{db: relica.WrapDB(sqlDB, driverName)}
}

// NewOutboxStoreWithPrefix creates an OutboxStore with a custom table prefix.
func NewOutboxStoreWithPrefix(sqlDB *sql.DB, driverName, prefix string) *OutboxStore {
	return &OutboxStore{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *OutboxStore) tableName() string {
	return r.tablePrefix + "message"
}

// Insert writes a new outbox row. ctx must carry the same ambient
// transaction as the caller's business write.
func (r *OutboxStore) Insert(ctx context.Context, rec eventuate.OutboxRecord) error {
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return eventuate.NewErrorWithCause(eventuate.ErrCodeSerialization, "failed to serialize outbox headers", err)
	}

	row := outboxRow{
		ID:          rec.ID,
		Destination: rec.Destination,
		Headers:     string(headers),
		Payload:     rec.Payload,
		Published:   0,
	}
	if err := r.db.WithContext(ctx).Model(&row).Table(r.tableName()).Insert(); err != nil {
		return eventuate.NewErrorWithCause(eventuate.ErrCodeDatabase, "failed to insert outbox row", err)
	}
	return nil
}

// ListUnpublished returns up to limit unpublished rows, oldest first.
func (r *OutboxStore) ListUnpublished(ctx context.Context, limit int) ([]eventuate.OutboxRecord, error) {
	var rows []outboxRow
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("published = ?", 0).
		OrderBy("creation_time ASC").
		Limit(int64(limit)).
		All(&rows)
	if err != nil {
		return nil, eventuate.NewErrorWithCause(eventuate.ErrCodeDatabase, "failed to list unpublished outbox rows", err)
	}

	records := make([]eventuate.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		var headers eventuate.Headers
		if err := json.Unmarshal([]byte(row.Headers), &headers); err != nil {
			return nil, eventuate.NewErrorWithCause(eventuate.ErrCodeSerialization, "failed to decode outbox headers", err)
		}
		records = append(records, eventuate.OutboxRecord{
			ID:           row.ID,
			Destination:  row.Destination,
			Payload:      row.Payload,
			Headers:      headers,
			PartitionKey: headers[eventuate.HeaderPartitionID],
			CreatedAt:    row.CreationTime,
		})
	}
	return records, nil
}

// MarkPublished stamps published=1 on the given ids.
func (r *OutboxStore) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		row := outboxRow{ID: id, Published: 1}
		if err := r.db.WithContext(ctx).Model(&row).Table(r.tableName()).Update(); err != nil {
			return eventuate.NewErrorWithCause(eventuate.ErrCodeDatabase, "failed to mark outbox row published", err)
		}
	}
	return nil
}
