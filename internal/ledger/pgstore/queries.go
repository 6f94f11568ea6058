package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Queries wraps the SQL statements used by Collection. New(tx) binds them
// to a transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type itemRow struct {
	ID                 []byte
	Description        string
	RestrictedDelivery bool
	TokenType          pgtype.Text
	TokenID            pgtype.Text
	TokenIssuance      pgtype.Int8
	TermsType          pgtype.Text
	TermsParameters    pgtype.Text
	AddedOn            time.Time
}

type fileRow struct {
	Hash        []byte
	Name        string
	ContentType string
	Size        int64
	Uploaded    bool
}

const getItem = `
SELECT id, description, restricted_delivery,
       token_type, token_id, token_issuance,
       terms_type, terms_parameters, added_on
FROM ledger_items
WHERE collection_id = $1 AND id = $2`

func (q *Queries) GetItem(ctx context.Context, loc uuid.UUID, id []byte) (itemRow, error) {
	var r itemRow
	err := q.db.QueryRow(ctx, getItem, loc, id).Scan(
		&r.ID, &r.Description, &r.RestrictedDelivery,
		&r.TokenType, &r.TokenID, &r.TokenIssuance,
		&r.TermsType, &r.TermsParameters, &r.AddedOn,
	)
	return r, err
}

const listItemFiles = `
SELECT hash, name, content_type, size, uploaded
FROM ledger_item_files
WHERE collection_id = $1 AND item_id = $2
ORDER BY name, hash`

func (q *Queries) ListItemFiles(ctx context.Context, loc uuid.UUID, itemID []byte) ([]fileRow, error) {
	rows, err := q.db.Query(ctx, listItemFiles, loc, itemID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (fileRow, error) {
		var f fileRow
		err := row.Scan(&f.Hash, &f.Name, &f.ContentType, &f.Size, &f.Uploaded)
		return f, err
	})
}

const insertItem = `
INSERT INTO ledger_items (
    collection_id, id, description, restricted_delivery,
    token_type, token_id, token_issuance, terms_type, terms_parameters
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

type InsertItemParams struct {
	CollectionID       uuid.UUID
	ID                 []byte
	Description        string
	RestrictedDelivery bool
	TokenType          pgtype.Text
	TokenID            pgtype.Text
	TokenIssuance      pgtype.Int8
	TermsType          pgtype.Text
	TermsParameters    pgtype.Text
}

func (q *Queries) InsertItem(ctx context.Context, arg InsertItemParams) error {
	_, err := q.db.Exec(ctx, insertItem,
		arg.CollectionID, arg.ID, arg.Description, arg.RestrictedDelivery,
		arg.TokenType, arg.TokenID, arg.TokenIssuance, arg.TermsType, arg.TermsParameters,
	)
	return err
}

const insertItemFile = `
INSERT INTO ledger_item_files (collection_id, item_id, hash, name, content_type, size)
VALUES ($1, $2, $3, $4, $5, $6)`

type InsertItemFileParams struct {
	CollectionID uuid.UUID
	ItemID       []byte
	Hash         []byte
	Name         string
	ContentType  string
	Size         int64
}

// InsertItemFiles queues every file insert in one pgx batch.
func (q *Queries) InsertItemFiles(ctx context.Context, args []InsertItemFileParams) error {
	if len(args) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, a := range args {
		b.Queue(insertItemFile, a.CollectionID, a.ItemID, a.Hash, a.Name, a.ContentType, a.Size)
	}
	return q.db.SendBatch(ctx, b).Close()
}

const lockItemFile = `
SELECT uploaded
FROM ledger_item_files
WHERE collection_id = $1 AND item_id = $2 AND hash = $3
FOR UPDATE`

func (q *Queries) LockItemFile(ctx context.Context, loc uuid.UUID, itemID, fileHash []byte) (bool, error) {
	var uploaded bool
	err := q.db.QueryRow(ctx, lockItemFile, loc, itemID, fileHash).Scan(&uploaded)
	return uploaded, err
}

const itemExists = `
SELECT EXISTS (SELECT 1 FROM ledger_items WHERE collection_id = $1 AND id = $2)`

func (q *Queries) ItemExists(ctx context.Context, loc uuid.UUID, id []byte) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, itemExists, loc, id).Scan(&ok)
	return ok, err
}

const markFileUploaded = `
UPDATE ledger_item_files
SET uploaded = TRUE, content = $4, uploaded_at = NOW()
WHERE collection_id = $1 AND item_id = $2 AND hash = $3 AND NOT uploaded`

func (q *Queries) MarkFileUploaded(ctx context.Context, loc uuid.UUID, itemID, fileHash, content []byte) (int64, error) {
	tag, err := q.db.Exec(ctx, markFileUploaded, loc, itemID, fileHash, content)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
