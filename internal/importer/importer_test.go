package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/ledgerimport/internal/core"
	"github.com/JonMunkholm/ledgerimport/internal/hash"
	"github.com/JonMunkholm/ledgerimport/internal/ledger"
)

// recordingLedger wraps a Memory ledger and counts calls.
type recordingLedger struct {
	*ledger.Memory

	mu        sync.Mutex
	creates   [][]hash.Hash
	uploads   []hash.Hash
	checks    atomic.Int64
	checkWait time.Duration
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{Memory: ledger.NewMemory()}
}

func (r *recordingLedger) ItemExists(ctx context.Context, id hash.Hash) (*ledger.ExistingItem, error) {
	r.checks.Add(1)
	if r.checkWait > 0 {
		time.Sleep(r.checkWait)
	}
	return r.Memory.ItemExists(ctx, id)
}

func (r *recordingLedger) CreateItems(ctx context.Context, items []ledger.NewItem) error {
	ids := make([]hash.Hash, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	r.mu.Lock()
	r.creates = append(r.creates, ids)
	r.mu.Unlock()
	return r.Memory.CreateItems(ctx, items)
}

func (r *recordingLedger) UploadFile(ctx context.Context, itemID, fileHash hash.Hash, content []byte) error {
	r.mu.Lock()
	r.uploads = append(r.uploads, itemID)
	r.mu.Unlock()
	return r.Memory.UploadFile(ctx, itemID, fileHash, content)
}

func (r *recordingLedger) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates = nil
	r.uploads = nil
	r.checks.Store(0)
}

// mapFiles is an in-memory FileSource.
type mapFiles map[string][]byte

func (m mapFiles) ReadFile(name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return b, nil
}

func plainItem(displayID string) core.Item {
	id := hash.Of(displayID)
	return core.Item{
		ID:          &id,
		DisplayID:   displayID,
		Description: "item " + displayID,
		TermsType:   "none",
	}
}

func fileItem(displayID, name string, content []byte) core.Item {
	it := plainItem(displayID)
	h := hash.Sum(content)
	it.File = &core.ItemFile{
		Name:        name,
		ContentType: "text/plain",
		Size:        fmt.Sprint(len(content)),
		Hash:        &h,
	}
	return it
}

func uploadOpts(batch int) Options {
	return Options{BatchSize: batch, MaxConcurrentChecks: 3, AcceptsUpload: true}
}

func TestRun_CreatesAndUploads(t *testing.T) {
	ctx := context.Background()
	l := newRecordingLedger()
	files := mapFiles{"a.txt": []byte("alpha"), "b.txt": []byte("beta")}
	items := []core.Item{
		fileItem("1", "a.txt", files["a.txt"]),
		plainItem("2"),
		fileItem("3", "b.txt", files["b.txt"]),
	}

	report, err := New(l, files, uploadOpts(2)).Run(ctx, items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := Report{Batches: 2, Created: 3, Uploaded: 2}
	if report != want {
		t.Errorf("Run() report = %+v, want %+v", report, want)
	}
	if len(l.creates) != 2 {
		t.Errorf("CreateItems calls = %d, want 2 (one per batch)", len(l.creates))
	}
	if len(l.creates[0]) != 2 || len(l.creates[1]) != 1 {
		t.Errorf("batch sizes = %d, %d, want 2, 1", len(l.creates[0]), len(l.creates[1]))
	}
	for _, it := range items {
		got, _ := l.Memory.ItemExists(ctx, *it.ID)
		if got == nil {
			t.Fatalf("item %s not created", it.DisplayID)
		}
		for _, f := range got.Files {
			if !f.Uploaded {
				t.Errorf("item %s file %s not uploaded", it.DisplayID, f.Name)
			}
		}
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newRecordingLedger()
	files := mapFiles{"a.txt": []byte("alpha")}
	items := []core.Item{fileItem("1", "a.txt", files["a.txt"]), plainItem("2")}
	im := New(l, files, uploadOpts(10))

	if _, err := im.Run(ctx, items); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	l.reset()

	report, err := im.Run(ctx, items)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if len(l.creates) != 0 || len(l.uploads) != 0 {
		t.Errorf("second run: %d create calls, %d upload calls, want 0, 0", len(l.creates), len(l.uploads))
	}
	want := Report{Batches: 1, Skipped: 1, Reconciled: 1}
	if report != want {
		t.Errorf("second Run() report = %+v, want %+v", report, want)
	}
}

func TestRun_ExistingUploadedItemNeedsNothing(t *testing.T) {
	ctx := context.Background()
	l := newRecordingLedger()
	content := []byte("already there")
	it := fileItem("E", "e.bin", content)

	err := l.Memory.CreateItems(ctx, []ledger.NewItem{{
		ID:    *it.ID,
		Files: []ledger.File{{Hash: *it.File.Hash, Name: "e.bin"}},
	}})
	if err != nil {
		t.Fatalf("seed CreateItems() error = %v", err)
	}
	if err := l.Memory.UploadFile(ctx, *it.ID, *it.File.Hash, content); err != nil {
		t.Fatalf("seed UploadFile() error = %v", err)
	}

	report, err := New(l, mapFiles{"e.bin": content}, uploadOpts(5)).Run(ctx, []core.Item{it})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(l.creates) != 0 || len(l.uploads) != 0 {
		t.Errorf("got %d create calls, %d upload calls, want 0, 0", len(l.creates), len(l.uploads))
	}
	if report.Reconciled != 1 {
		t.Errorf("Reconciled = %d, want 1", report.Reconciled)
	}
}

func TestRun_PendingUploadOnExistingItem(t *testing.T) {
	ctx := context.Background()
	l := newRecordingLedger()
	content := []byte("late file")
	it := fileItem("P", "p.bin", content)

	err := l.Memory.CreateItems(ctx, []ledger.NewItem{{
		ID:    *it.ID,
		Files: []ledger.File{{Hash: *it.File.Hash, Name: "p.bin"}},
	}})
	if err != nil {
		t.Fatalf("seed CreateItems() error = %v", err)
	}

	report, err := New(l, mapFiles{"p.bin": content}, uploadOpts(5)).Run(ctx, []core.Item{it})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(l.creates) != 0 {
		t.Errorf("CreateItems calls = %d, want 0", len(l.creates))
	}
	// Pending classifies the item, Uploaded counts its upload.
	if report.Pending != 1 || report.Uploaded != 1 || report.Created != 0 || report.Reconciled != 0 {
		t.Errorf("report = %+v, want Pending 1, Uploaded 1", report)
	}
}

func TestRun_MissingSlotIsFatal(t *testing.T) {
	ctx := context.Background()
	l := newRecordingLedger()
	content := []byte("content")
	broken := fileItem("broken", "x.bin", content)
	later := plainItem("later")

	// Existing item created without the declared slot.
	if err := l.Memory.CreateItems(ctx, []ledger.NewItem{{ID: *broken.ID}}); err != nil {
		t.Fatalf("seed CreateItems() error = %v", err)
	}

	_, err := New(l, mapFiles{"x.bin": content}, uploadOpts(1)).Run(ctx, []core.Item{broken, later})
	if !errors.Is(err, ErrLedgerIntegrity) {
		t.Fatalf("Run() error = %v, want ErrLedgerIntegrity", err)
	}
	var integrity *LedgerIntegrityError
	if !errors.As(err, &integrity) || integrity.DisplayID != "broken" {
		t.Errorf("Run() error = %#v, want *LedgerIntegrityError for broken", err)
	}
	if got, _ := l.Memory.ItemExists(ctx, *later.ID); got != nil {
		t.Error("run continued past the integrity violation")
	}
	if code := core.MapError(err).Code; code != "LED001" {
		t.Errorf("MapError().Code = %s, want LED001", code)
	}
}

func TestRun_HashMismatchSkipsUpload(t *testing.T) {
	ctx := context.Background()
	l := newRecordingLedger()
	it := fileItem("m", "m.bin", []byte("declared"))
	next := fileItem("n", "n.bin", []byte("fine"))
	files := mapFiles{"m.bin": []byte("tampered"), "n.bin": []byte("fine")}

	report, err := New(l, files, uploadOpts(5)).Run(ctx, []core.Item{it, next})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.HashMismatches != 1 || report.Uploaded != 1 || report.Created != 2 {
		t.Errorf("report = %+v, want 1 mismatch, 1 upload, 2 created", report)
	}
	if len(l.uploads) != 1 || l.uploads[0] != *next.ID {
		t.Errorf("uploads = %v, want only %s", l.uploads, next.ID)
	}
}

func TestRun_MissingFileSkipsUpload(t *testing.T) {
	l := newRecordingLedger()
	it := fileItem("gone", "gone.bin", []byte("x"))

	report, err := New(l, mapFiles{}, uploadOpts(5)).Run(context.Background(), []core.Item{it})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.MissingFiles != 1 || report.Created != 1 || report.Uploaded != 0 {
		t.Errorf("report = %+v, want 1 missing file, 1 created, 0 uploaded", report)
	}
}

func TestRun_UploadsDisabled(t *testing.T) {
	l := newRecordingLedger()
	it := fileItem("f", "f.bin", []byte("x"))
	opts := uploadOpts(5)
	opts.AcceptsUpload = false

	report, err := New(l, mapFiles{"f.bin": []byte("x")}, opts).Run(context.Background(), []core.Item{it})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(l.uploads) != 0 || report.Created != 1 {
		t.Errorf("report = %+v, uploads = %d, want 1 created and no uploads", report, len(l.uploads))
	}
}

func TestRun_SkipsInvalidItems(t *testing.T) {
	l := newRecordingLedger()
	bad := plainItem("bad")
	bad.ValidationError = "Duplicate ID"
	noID := core.Item{DisplayID: "0xzz", ValidationError: "Invalid ID"}

	report, err := New(l, nil, uploadOpts(5)).Run(context.Background(), []core.Item{bad, plainItem("ok"), noID})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Invalid != 2 || report.Created != 1 {
		t.Errorf("report = %+v, want 2 invalid, 1 created", report)
	}
	if l.Len() != 1 {
		t.Errorf("ledger items = %d, want 1", l.Len())
	}
}

func TestRun_ConcurrentChecksKeepOrder(t *testing.T) {
	ctx := context.Background()
	l := newRecordingLedger()
	l.checkWait = time.Millisecond

	var items []core.Item
	for i := range 25 {
		items = append(items, plainItem(fmt.Sprintf("item-%02d", i)))
	}
	// Pre-create every third item so skip and create decisions interleave.
	var seed []ledger.NewItem
	for i := 0; i < len(items); i += 3 {
		seed = append(seed, ledger.NewItem{ID: *items[i].ID})
	}
	if err := l.Memory.CreateItems(ctx, seed); err != nil {
		t.Fatalf("seed CreateItems() error = %v", err)
	}

	opts := Options{BatchSize: 7, MaxConcurrentChecks: 5}
	report, err := New(l, nil, opts).Run(ctx, items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var want []hash.Hash
	for i, it := range items {
		if i%3 != 0 {
			want = append(want, *it.ID)
		}
	}
	var got []hash.Hash
	for _, batch := range l.creates {
		got = append(got, batch...)
	}
	if len(got) != len(want) {
		t.Fatalf("created %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("created[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if report.Batches != 4 || report.Skipped != len(seed) {
		t.Errorf("report = %+v, want 4 batches, %d skipped", report, len(seed))
	}
	if n := l.checks.Load(); n != int64(len(items)) {
		t.Errorf("ItemExists calls = %d, want %d", n, len(items))
	}
}

func TestRun_CreateFailureStopsRun(t *testing.T) {
	ctx := context.Background()
	l := &failingLedger{recordingLedger: newRecordingLedger(), err: errors.New("connection refused")}

	report, err := New(l, nil, uploadOpts(1)).Run(ctx, []core.Item{plainItem("a"), plainItem("b")})
	if err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if report.Batches != 0 || report.Created != 0 {
		t.Errorf("report = %+v, want nothing done", report)
	}
	if len(l.creates) != 1 {
		t.Errorf("CreateItems calls = %d, want 1", len(l.creates))
	}
}

type failingLedger struct {
	*recordingLedger
	err error
}

func (f *failingLedger) CreateItems(ctx context.Context, items []ledger.NewItem) error {
	_ = f.recordingLedger.CreateItems(ctx, nil)
	return f.err
}

func TestToNewItem(t *testing.T) {
	it := fileItem("tok", "t.bin", []byte("abc"))
	it.Token = &core.ItemToken{Type: "owner", ID: "0x01", Issuance: "3"}
	it.TermsType = "CC4.0"
	it.TermsParameters = "BY"
	it.RestrictedDelivery = true

	n, err := toNewItem(it)
	if err != nil {
		t.Fatalf("toNewItem() error = %v", err)
	}
	if n.ID != *it.ID || !n.RestrictedDelivery {
		t.Errorf("toNewItem() = %+v", n)
	}
	if len(n.Files) != 1 || n.Files[0].Size != 3 || n.Files[0].Hash != *it.File.Hash {
		t.Errorf("Files = %+v, want one 3-byte file", n.Files)
	}
	if n.Token == nil || n.Token.Issuance != 3 {
		t.Errorf("Token = %+v, want issuance 3", n.Token)
	}
	if n.Terms == nil || n.Terms.Type != "CC4.0" {
		t.Errorf("Terms = %+v, want CC4.0", n.Terms)
	}

	it.File.Size = "big"
	if _, err := toNewItem(it); err == nil {
		t.Error("toNewItem() with bad size: error = nil, want error")
	}

	none := plainItem("none")
	n, _ = toNewItem(none)
	if n.Terms != nil {
		t.Errorf("Terms for none = %+v, want nil", n.Terms)
	}
}

func TestRun_SameDerivedIDInOneBatch(t *testing.T) {
	ctx := context.Background()
	l := newRecordingLedger()

	byText := plainItem("abc")
	byHex := plainItem("abc")
	byHex.DisplayID = byText.ID.Hex()
	items := []core.Item{byText, byHex, plainItem("other")}

	im := New(l, nil, uploadOpts(10))
	report, err := im.Run(ctx, items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Created != 2 || report.Skipped != 1 {
		t.Errorf("report = %+v, want Created 2, Skipped 1", report)
	}
	if l.Len() != 2 {
		t.Errorf("stored items = %d, want 2", l.Len())
	}

	l.reset()
	report, err = im.Run(ctx, items)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if len(l.creates) != 0 || report.Skipped != 3 {
		t.Errorf("second run creates = %d, report = %+v, want no creates and 3 skipped", len(l.creates), report)
	}
}

func TestRun_SameDerivedIDWithFiles(t *testing.T) {
	ctx := context.Background()
	content := []byte("shared")

	t.Run("same file uploads once", func(t *testing.T) {
		l := newRecordingLedger()
		first := fileItem("abc", "a.bin", content)
		second := fileItem("abc", "a.bin", content)
		second.DisplayID = first.ID.Hex()

		report, err := New(l, mapFiles{"a.bin": content}, uploadOpts(10)).Run(ctx, []core.Item{first, second})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(l.uploads) != 1 || report.Uploaded != 1 || report.Skipped != 1 {
			t.Errorf("uploads = %d, report = %+v, want one upload and one skip", len(l.uploads), report)
		}
	})

	t.Run("different file is fatal", func(t *testing.T) {
		l := newRecordingLedger()
		first := fileItem("abc", "a.bin", content)
		second := fileItem("abc", "b.bin", []byte("other content"))
		second.DisplayID = first.ID.Hex()

		_, err := New(l, mapFiles{"a.bin": content}, uploadOpts(10)).Run(ctx, []core.Item{first, second})
		if !errors.Is(err, ErrLedgerIntegrity) {
			t.Fatalf("Run() error = %v, want ErrLedgerIntegrity", err)
		}
		if len(l.creates) != 0 {
			t.Errorf("CreateItems calls = %d, want 0", len(l.creates))
		}
	})
}

func TestToNewItem_IncompleteToken(t *testing.T) {
	tests := []struct {
		name  string
		token core.ItemToken
	}{
		{"no id or issuance", core.ItemToken{Type: "owner"}},
		{"no issuance", core.ItemToken{Type: "owner", ID: "0x01"}},
		{"no type", core.ItemToken{ID: "0x01", Issuance: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := plainItem("tok")
			it.Token = &tt.token
			n, err := toNewItem(it)
			if err != nil {
				t.Fatalf("toNewItem() error = %v", err)
			}
			if n.Token != nil {
				t.Errorf("Token = %+v, want nil", n.Token)
			}
		})
	}
}
