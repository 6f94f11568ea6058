// Package importer reconciles validated items with a ledger.
//
// Run splits the items into batches and processes them strictly in order.
// For each batch it checks which items already exist, creates the missing
// ones with a single CreateItems call and uploads the files that are still
// pending. Re-running after a partial failure converges: created items are
// skipped and uploaded files are not sent again.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/ledgerimport/internal/core"
	"github.com/JonMunkholm/ledgerimport/internal/hash"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
	"github.com/JonMunkholm/ledgerimport/internal/logging"
)

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 10

// DefaultMaxConcurrentChecks bounds parallel ItemExists calls per batch.
const DefaultMaxConcurrentChecks = 4

// ErrLedgerIntegrity matches every LedgerIntegrityError.
var ErrLedgerIntegrity = errors.New("ledger integrity violation")

// LedgerIntegrityError reports an existing item that lacks the file slot its
// record declares. It aborts the whole run.
type LedgerIntegrityError struct {
	DisplayID string
	ItemID    hash.Hash
	FileHash  hash.Hash
}

func (e *LedgerIntegrityError) Error() string {
	return fmt.Sprintf("ledger integrity violation: item %q (%s) has no file with hash %s",
		e.DisplayID, e.ItemID, e.FileHash)
}

func (e *LedgerIntegrityError) Is(target error) bool {
	return target == ErrLedgerIntegrity
}

// FileSource reads the content of a file named in an item record.
type FileSource interface {
	ReadFile(name string) ([]byte, error)
}

// DirFiles reads files relative to a directory.
type DirFiles string

// ReadFile implements FileSource.
func (d DirFiles) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), name))
}

// Options configures an Importer.
type Options struct {
	BatchSize           int
	MaxConcurrentChecks int

	// AcceptsUpload enables file uploads. When false, items with files are
	// created but their content is never sent.
	AcceptsUpload bool
}

// ImportItem is an item plus its upload requirement for this run.
type ImportItem struct {
	Item   core.Item
	Upload bool
}

// Report counts the outcome of a run.
//
// Created, Skipped, Pending and the check-time part of Reconciled classify
// items by what the existence check found. Uploaded, HashMismatches,
// MissingFiles and uploads refused as already filled (also Reconciled)
// count upload attempts, made for created and Pending items. A Pending item
// is therefore counted a second time by the outcome of its upload.
type Report struct {
	Batches        int `json:"batches"`
	Created        int `json:"created"`
	Skipped        int `json:"skipped"`
	Uploaded       int `json:"uploaded"`
	Reconciled     int `json:"reconciled"`
	Pending        int `json:"pending"`
	HashMismatches int `json:"hashMismatches"`
	MissingFiles   int `json:"missingFiles"`
	Invalid        int `json:"invalid"`
}

// Importer drives one ledger.
type Importer struct {
	ledger ledger.Ledger
	files  FileSource
	opts   Options
}

// New creates an importer. files may be nil when uploads are disabled.
func New(l ledger.Ledger, files FileSource, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxConcurrentChecks <= 0 {
		opts.MaxConcurrentChecks = DefaultMaxConcurrentChecks
	}
	if files == nil {
		files = DirFiles(".")
	}
	return &Importer{ledger: l, files: files, opts: opts}
}

// Prepare drops items carrying a validation error and derives the upload
// requirement of the rest. It returns the number of dropped items.
func (im *Importer) Prepare(items []core.Item) ([]ImportItem, int) {
	out := make([]ImportItem, 0, len(items))
	invalid := 0
	for _, it := range items {
		if !it.Valid() || it.ID == nil {
			invalid++
			continue
		}
		out = append(out, ImportItem{
			Item:   it,
			Upload: im.opts.AcceptsUpload && it.File != nil,
		})
	}
	return out, invalid
}

// Run imports items batch by batch. It stops at the first ledger error or
// integrity violation and returns the counts gathered so far.
func (im *Importer) Run(ctx context.Context, items []core.Item) (Report, error) {
	var report Report

	prepared, invalid := im.Prepare(items)
	report.Invalid = invalid
	itemsTotal.WithLabelValues(outcomeInvalid).Add(float64(invalid))

	if len(prepared) == 0 {
		return report, nil
	}

	batcher, err := core.NewBatcher(prepared, im.opts.BatchSize)
	if err != nil {
		return report, err
	}

	for i := 0; i < batcher.NumBatches(); i++ {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("import cancelled: %w", err)
		}
		batch, err := batcher.Batch(i)
		if err != nil {
			return report, err
		}
		if err := im.RunBatch(ctx, batch, &report); err != nil {
			return report, fmt.Errorf("batch %d: %w", i, err)
		}
	}
	return report, nil
}

// RunBatch reconciles one batch and adds its outcome to report.
func (im *Importer) RunBatch(ctx context.Context, batch core.Batch[ImportItem], report *Report) error {
	logger := logging.WithFields(ctx, "batch", batch.Index)

	// Work on a copy; upload requirements are downgraded per run.
	items := append([]ImportItem(nil), batch.Items...)

	existing, err := im.checkExisting(ctx, items)
	if err != nil {
		return err
	}

	var toCreate []ledger.NewItem
	queued := make(map[hash.Hash]*ImportItem)
	for i := range items {
		it := &items[i]
		itemLog := logger.With("display_id", it.Item.DisplayID, "item_id", it.Item.ID.Hex())

		// Two display ids can derive the same item id. The first one queued
		// creates the item; later ones behave as if it already existed.
		if first, ok := queued[*it.Item.ID]; ok && existing[i] == nil {
			if it.Upload && (first.Item.File == nil || *first.Item.File.Hash != *it.Item.File.Hash) {
				return &LedgerIntegrityError{
					DisplayID: it.Item.DisplayID,
					ItemID:    *it.Item.ID,
					FileHash:  *it.Item.File.Hash,
				}
			}
			itemLog.Info("Skipping item queued earlier in batch", "first_display_id", first.Item.DisplayID)
			it.Upload = false
			report.Skipped++
			itemsTotal.WithLabelValues(outcomeSkipped).Inc()
			continue
		}

		found := existing[i]
		if found == nil {
			itemLog.Info("Importing new item")
			newItem, err := toNewItem(it.Item)
			if err != nil {
				return fmt.Errorf("item %q: %w", it.Item.DisplayID, err)
			}
			toCreate = append(toCreate, newItem)
			queued[*it.Item.ID] = it
			continue
		}

		if !it.Upload {
			itemLog.Info("Skipping existing item")
			report.Skipped++
			itemsTotal.WithLabelValues(outcomeSkipped).Inc()
			continue
		}

		fileHash := *it.Item.File.Hash
		f, ok := found.FileByHash(fileHash)
		if !ok {
			return &LedgerIntegrityError{
				DisplayID: it.Item.DisplayID,
				ItemID:    *it.Item.ID,
				FileHash:  fileHash,
			}
		}
		if f.Uploaded {
			itemLog.Info("File already uploaded", "file", f.Name)
			it.Upload = false
			report.Reconciled++
			itemsTotal.WithLabelValues(outcomeReconciled).Inc()
			continue
		}
		itemLog.Info("Upload pending", "file", f.Name)
		report.Pending++
		itemsTotal.WithLabelValues(outcomePending).Inc()
	}

	if len(toCreate) > 0 {
		if err := im.ledger.CreateItems(ctx, toCreate); err != nil {
			return fmt.Errorf("create %d items: %w", len(toCreate), err)
		}
		report.Created += len(toCreate)
		itemsTotal.WithLabelValues(outcomeCreated).Add(float64(len(toCreate)))
	}

	for i := range items {
		if !items[i].Upload {
			continue
		}
		if err := im.upload(ctx, logger, items[i].Item, report); err != nil {
			return err
		}
	}

	report.Batches++
	batchesTotal.Inc()
	return nil
}

// checkExisting runs ItemExists for every item with bounded concurrency.
// Results are indexed like items so decisions keep item order.
func (im *Importer) checkExisting(ctx context.Context, items []ImportItem) ([]*ledger.ExistingItem, error) {
	existing := make([]*ledger.ExistingItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.MaxConcurrentChecks)
	for i := range items {
		g.Go(func() error {
			found, err := im.ledger.ItemExists(gctx, *items[i].Item.ID)
			if err != nil {
				return fmt.Errorf("check item %q: %w", items[i].Item.DisplayID, err)
			}
			existing[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return existing, nil
}

func (im *Importer) upload(ctx context.Context, logger *slog.Logger, item core.Item, report *Report) error {
	file := item.File
	log := logger.With("display_id", item.DisplayID, "file", file.Name)

	content, err := im.files.ReadFile(file.Name)
	if err != nil {
		log.Warn("Cannot read file, upload skipped", "error", err)
		report.MissingFiles++
		uploadsTotal.WithLabelValues(resultMissingFile).Inc()
		return nil
	}

	if actual := hash.Sum(content); actual != *file.Hash {
		log.Warn("File content does not match declared hash, upload skipped",
			"declared", file.Hash.Hex(), "actual", actual.Hex())
		report.HashMismatches++
		uploadsTotal.WithLabelValues(resultHashMismatch).Inc()
		return nil
	}

	err = im.ledger.UploadFile(ctx, *item.ID, *file.Hash, content)
	switch {
	case errors.Is(err, ledger.ErrAlreadyUploaded):
		log.Info("File already uploaded")
		report.Reconciled++
		uploadsTotal.WithLabelValues(resultAlreadyUploaded).Inc()
		return nil
	case err != nil:
		return fmt.Errorf("upload %s for %q: %w", file.Name, item.DisplayID, err)
	}

	log.Info("File uploaded", "bytes", len(content))
	report.Uploaded++
	uploadsTotal.WithLabelValues(resultUploaded).Inc()
	return nil
}

// toNewItem converts a validated item to its ledger creation request.
func toNewItem(it core.Item) (ledger.NewItem, error) {
	n := ledger.NewItem{
		ID:                 *it.ID,
		Description:        it.Description,
		RestrictedDelivery: it.RestrictedDelivery,
	}

	if it.TermsType != "" && it.TermsType != core.TermsNone {
		n.Terms = &ledger.Terms{Type: it.TermsType, Parameters: it.TermsParameters}
	}

	if it.File != nil {
		size, err := parseCount(it.File.Size)
		if err != nil {
			return ledger.NewItem{}, fmt.Errorf("invalid file size %q: %w", it.File.Size, err)
		}
		n.Files = []ledger.File{{
			Hash:        *it.File.Hash,
			Name:        it.File.Name,
			ContentType: it.File.ContentType,
			Size:        size,
		}}
	}

	if it.Token != nil && it.Token.Type != "" && it.Token.ID != "" && it.Token.Issuance != "" {
		issuance, err := parseCount(it.Token.Issuance)
		if err != nil {
			return ledger.NewItem{}, fmt.Errorf("invalid token issuance %q: %w", it.Token.Issuance, err)
		}
		n.Token = &ledger.Token{Type: it.Token.Type, ID: it.Token.ID, Issuance: issuance}
	}
	return n, nil
}

// parseCount reads a non-negative integer column; empty means zero.
func parseCount(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
