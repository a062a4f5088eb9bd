package batch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemtrack/bid-tracker/constants"
	"github.com/gemtrack/bid-tracker/internal/repository"
)

// fakeDocRepo is an in-memory BidDocumentRepository keyed by source file.
type fakeDocRepo struct {
	mu   sync.Mutex
	docs map[string]*repository.BidDocument

	createErr error
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: map[string]*repository.BidDocument{}}
}

func (f *fakeDocRepo) ExistsBySourceFile(_ context.Context, sourceFile string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[sourceFile]
	return ok, nil
}

func (f *fakeDocRepo) Create(_ context.Context, doc *repository.BidDocument) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc.ID = uuid.New()
	f.docs[doc.SourceFile] = doc
	return nil
}

func (f *fakeDocRepo) GetBySourceFile(_ context.Context, sourceFile string) (*repository.BidDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[sourceFile]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}

func (f *fakeDocRepo) ListAll(_ context.Context) ([]*repository.BidDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*repository.BidDocument, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDocRepo) ListMissingEmbedding(ctx context.Context) ([]*repository.BidDocument, error) {
	all, _ := f.ListAll(ctx)
	var out []*repository.BidDocument
	for _, d := range all {
		if d.Embedding == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocRepo) SetEmbedding(_ context.Context, id uuid.UUID, vec []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.ID == id {
			d.Embedding = vec
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeDocRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs), nil
}

// fakeTexts maps base filename to canned text; unknown files fail.
type fakeTexts struct {
	texts map[string]string
}

func (f *fakeTexts) ExtractFile(path string) (string, error) {
	t, ok := f.texts[filepath.Base(path)]
	if !ok {
		return "", errors.New("unreadable file")
	}
	return t, nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) Enabled() bool { return true }

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o644))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRun_AccountsForEveryFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "b.pdf", "c.pdf", "notes.txt")

	texts := &fakeTexts{texts: map[string]string{
		"a.pdf": "Bid Number: GEMC-1",
		"b.pdf": "Bid Number: GEMC-2",
		// c.pdf missing -> extraction error
	}}
	repo := newFakeDocRepo()
	coord := NewCoordinator(repo, texts, discardLogger())

	report, err := coord.Run(context.Background(), dir, false, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Discovered) // txt file never discovered
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, report.Discovered, report.Processed+report.Skipped+report.Failed)
	assert.Len(t, report.Results, report.Discovered)
}

func TestRun_SkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "b.pdf")

	texts := &fakeTexts{texts: map[string]string{
		"a.pdf": "Bid Number: GEMC-1",
		"b.pdf": "Bid Number: GEMC-2",
	}}
	repo := newFakeDocRepo()
	repo.docs["a.pdf"] = &repository.BidDocument{SourceFile: "a.pdf"}

	coord := NewCoordinator(repo, texts, discardLogger())
	report, err := coord.Run(context.Background(), dir, false, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
}

func TestRun_WorkerPoolProcessesAll(t *testing.T) {
	dir := t.TempDir()
	names := make([]string, 0, 8)
	texts := map[string]string{}
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		name := n + ".pdf"
		names = append(names, name)
		texts[name] = "Bid Number: GEMC-" + n
	}
	writeFiles(t, dir, names...)

	repo := newFakeDocRepo()
	coord := NewCoordinator(repo, &fakeTexts{texts: texts}, discardLogger())

	report, err := coord.Run(context.Background(), dir, false, 4)
	require.NoError(t, err)

	assert.Equal(t, 8, report.Processed)
	n, _ := repo.Count(context.Background())
	assert.Equal(t, 8, n)
}

func TestRun_RecursiveDiscovery(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFiles(t, dir, "top.pdf")
	writeFiles(t, sub, "nested.pdf")

	texts := &fakeTexts{texts: map[string]string{
		"top.pdf":    "Bid Number: GEMC-1",
		"nested.pdf": "Bid Number: GEMC-2",
	}}
	repo := newFakeDocRepo()
	coord := NewCoordinator(repo, texts, discardLogger())

	flat, err := coord.Run(context.Background(), dir, false, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, flat.Discovered)

	// nested.pdf not yet stored, top.pdf now a duplicate
	deep, err := coord.Run(context.Background(), dir, true, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deep.Discovered)
	assert.Equal(t, 1, deep.Processed)
	assert.Equal(t, 1, deep.Skipped)
}

func TestProcessFile_PersistsExtractedFields(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf")

	texts := &fakeTexts{texts: map[string]string{
		"a.pdf": "Bid Number: GEMC-42\nDated: 15-08-1947\nTotal Quantity: 40",
	}}
	repo := newFakeDocRepo()
	coord := NewCoordinator(repo, texts, discardLogger())

	res := coord.ProcessFile(context.Background(), filepath.Join(dir, "a.pdf"))
	require.Equal(t, constants.StatusProcessed, res.Status)
	assert.Equal(t, "GEMC-42", res.BidNumber)

	doc, err := repo.GetBySourceFile(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "GEMC-42", doc.BidNumber)
	require.NotNil(t, doc.Dated)
	assert.Equal(t, "1947-08-15", doc.Dated.Format("2006-01-02"))
	assert.NotEmpty(t, doc.Fields)
}

func TestProcessFile_EmbeddingFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf")

	texts := &fakeTexts{texts: map[string]string{"a.pdf": "Bid Number: GEMC-1"}}
	repo := newFakeDocRepo()
	emb := &fakeEmbedder{err: errors.New("service down")}
	coord := NewCoordinator(repo, texts, discardLogger(), WithEmbedder(emb))

	res := coord.ProcessFile(context.Background(), filepath.Join(dir, "a.pdf"))
	require.Equal(t, constants.StatusProcessed, res.Status)

	doc, err := repo.GetBySourceFile(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Nil(t, doc.Embedding)
	assert.Equal(t, 1, emb.calls)
}

func TestProcessFile_StoresEmbeddingWhenAvailable(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf")

	texts := &fakeTexts{texts: map[string]string{"a.pdf": "Bid Number: GEMC-1"}}
	repo := newFakeDocRepo()
	coord := NewCoordinator(repo, texts, discardLogger(), WithEmbedder(&fakeEmbedder{}))

	res := coord.ProcessFile(context.Background(), filepath.Join(dir, "a.pdf"))
	require.Equal(t, constants.StatusProcessed, res.Status)

	doc, err := repo.GetBySourceFile(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, doc.Embedding)
}

func TestProcessFile_PersistFailure(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf")

	texts := &fakeTexts{texts: map[string]string{"a.pdf": "Bid Number: GEMC-1"}}
	repo := newFakeDocRepo()
	repo.createErr = errors.New("disk full")
	coord := NewCoordinator(repo, texts, discardLogger())

	res := coord.ProcessFile(context.Background(), filepath.Join(dir, "a.pdf"))
	assert.Equal(t, constants.StatusFailed, res.Status)
	assert.Contains(t, res.Reason, "persist")
}

func TestDiscover_SkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", ".hidden.pdf")

	paths, err := Discover(dir, false)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "a.pdf", filepath.Base(paths[0]))
}
