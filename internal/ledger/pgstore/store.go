package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/ledgerimport/internal/hash"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
)

const uniqueViolation = "23505"

// Store serves every collection from one database.
type Store struct {
	db DB
}

// NewStore wraps db. Call Migrate once before serving.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.db)
}

// Collection implements ledger.Collections.
func (s *Store) Collection(loc uuid.UUID) ledger.Ledger {
	return &Collection{db: s.db, loc: loc}
}

// Collection is the ledger of a single LOC.
type Collection struct {
	db  DB
	loc uuid.UUID
}

// ItemExists implements ledger.Ledger.
func (c *Collection) ItemExists(ctx context.Context, id hash.Hash) (*ledger.ExistingItem, error) {
	q := New(c.db)

	row, err := q.GetItem(ctx, c.loc, id[:])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}

	files, err := q.ListItemFiles(ctx, c.loc, id[:])
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", id, err)
	}

	item := &ledger.ExistingItem{
		ID:                 id,
		Description:        row.Description,
		RestrictedDelivery: row.RestrictedDelivery,
		AddedOn:            row.AddedOn.UTC(),
		Files:              make([]ledger.File, 0, len(files)),
	}
	if row.TokenType.Valid {
		item.Token = &ledger.Token{
			Type:     row.TokenType.String,
			ID:       row.TokenID.String,
			Issuance: uint64(row.TokenIssuance.Int64),
		}
	}
	if row.TermsType.Valid {
		item.Terms = &ledger.Terms{Type: row.TermsType.String, Parameters: row.TermsParameters.String}
	}
	for _, f := range files {
		var h hash.Hash
		copy(h[:], f.Hash)
		item.Files = append(item.Files, ledger.File{
			Hash:        h,
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        uint64(f.Size),
			Uploaded:    f.Uploaded,
		})
	}
	return item, nil
}

// CreateItems implements ledger.Ledger. The batch is one transaction; a
// unique violation on any id rolls back the whole batch.
func (c *Collection) CreateItems(ctx context.Context, items []ledger.NewItem) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	q := New(tx)
	var files []InsertItemFileParams
	for _, it := range items {
		if err := q.InsertItem(ctx, c.insertParams(it)); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", ledger.ErrItemExists, it.ID)
			}
			return fmt.Errorf("insert item %s: %w", it.ID, err)
		}
		for _, f := range it.Files {
			files = append(files, InsertItemFileParams{
				CollectionID: c.loc,
				ItemID:       it.ID[:],
				Hash:         f.Hash[:],
				Name:         f.Name,
				ContentType:  f.ContentType,
				Size:         int64(f.Size),
			})
		}
	}
	if err := q.InsertItemFiles(ctx, files); err != nil {
		return fmt.Errorf("insert item files: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (c *Collection) insertParams(it ledger.NewItem) InsertItemParams {
	p := InsertItemParams{
		CollectionID:       c.loc,
		ID:                 it.ID[:],
		Description:        it.Description,
		RestrictedDelivery: it.RestrictedDelivery,
	}
	if it.Token != nil {
		p.TokenType = pgtype.Text{String: it.Token.Type, Valid: true}
		p.TokenID = pgtype.Text{String: it.Token.ID, Valid: true}
		p.TokenIssuance = pgtype.Int8{Int64: int64(it.Token.Issuance), Valid: true}
	}
	if it.Terms != nil {
		p.TermsType = pgtype.Text{String: it.Terms.Type, Valid: true}
		p.TermsParameters = pgtype.Text{String: it.Terms.Parameters, Valid: true}
	}
	return p
}

// UploadFile implements ledger.Ledger. The slot row is locked for the
// duration of the check so two concurrent uploads cannot both succeed.
func (c *Collection) UploadFile(ctx context.Context, itemID, fileHash hash.Hash, content []byte) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := New(tx)
	uploaded, err := q.LockItemFile(ctx, c.loc, itemID[:], fileHash[:])
	if errors.Is(err, pgx.ErrNoRows) {
		exists, existsErr := q.ItemExists(ctx, c.loc, itemID[:])
		if existsErr != nil {
			return fmt.Errorf("check item %s: %w", itemID, existsErr)
		}
		if !exists {
			return fmt.Errorf("%w: %s", ledger.ErrItemNotFound, itemID)
		}
		return fmt.Errorf("%w: %s", ledger.ErrFileNotFound, fileHash)
	}
	if err != nil {
		return fmt.Errorf("lock file slot %s: %w", fileHash, err)
	}
	if uploaded {
		return fmt.Errorf("%w: %s", ledger.ErrAlreadyUploaded, fileHash)
	}
	if hash.Sum(content) != fileHash {
		return fmt.Errorf("%w: %s", ledger.ErrHashMismatch, fileHash)
	}

	n, err := q.MarkFileUploaded(ctx, c.loc, itemID[:], fileHash[:], content)
	if err != nil {
		return fmt.Errorf("mark file uploaded: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%w: %s", ledger.ErrAlreadyUploaded, fileHash)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
