package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gemtrack/bid-tracker/constants"
	"github.com/gemtrack/bid-tracker/internal/repository"
)

// listOnlyRepo satisfies BidDocumentRepository for export tests; only
// ListAll is expected to be called.
type listOnlyRepo struct {
	docs []*repository.BidDocument
	err  error
}

func (r *listOnlyRepo) ListAll(_ context.Context) ([]*repository.BidDocument, error) {
	return r.docs, r.err
}

func (r *listOnlyRepo) ExistsBySourceFile(context.Context, string) (bool, error) {
	return false, errors.New("unexpected call")
}
func (r *listOnlyRepo) Create(context.Context, *repository.BidDocument) error {
	return errors.New("unexpected call")
}
func (r *listOnlyRepo) GetBySourceFile(context.Context, string) (*repository.BidDocument, error) {
	return nil, errors.New("unexpected call")
}
func (r *listOnlyRepo) ListMissingEmbedding(context.Context) ([]*repository.BidDocument, error) {
	return nil, errors.New("unexpected call")
}
func (r *listOnlyRepo) SetEmbedding(context.Context, uuid.UUID, []float32) error {
	return errors.New("unexpected call")
}
func (r *listOnlyRepo) Count(context.Context) (int, error) {
	return 0, errors.New("unexpected call")
}

func sampleDocs(t *testing.T) []*repository.BidDocument {
	t.Helper()
	dated := time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC)
	return []*repository.BidDocument{
		{
			ID:         uuid.New(),
			SourceFile: "a.pdf",
			BidNumber:  "GEMC-1",
			Dated:      &dated,
			Fields:     json.RawMessage(`{"bid_number":"GEMC-1","ministry":"Ministry Of Defence","total_quantity":40,"dated":"2023-04-05"}`),
			CreatedAt:  time.Now().UTC(),
		},
		{
			ID:         uuid.New(),
			SourceFile: "b.pdf",
			Fields:     json.RawMessage(`{"bid_number":null,"ministry":null}`),
			CreatedAt:  time.Now().UTC(),
		},
	}
}

func TestExportBidsXLSX(t *testing.T) {
	svc := NewService(&listOnlyRepo{docs: sampleDocs(t)}, nil)

	data, err := svc.ExportBidsXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Bids")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 documents

	header := rows[0]
	require.Equal(t, "source_file", header[0])
	assert.Equal(t, append([]string{"source_file"}, constants.FieldNames...), header)

	assert.Equal(t, "a.pdf", rows[1][0])
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}
	assert.Equal(t, "GEMC-1", rows[1][col("bid_number")])
	assert.Equal(t, "Ministry Of Defence", rows[1][col("ministry")])
	assert.Equal(t, "40", rows[1][col("total_quantity")])

	// summary sheet exists with the document count
	sum, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.NotEmpty(t, sum)
	assert.Equal(t, "Total Documents", sum[0][0])
	assert.Equal(t, "2", sum[0][1])
}

func TestExportBidsJSON(t *testing.T) {
	svc := NewService(&listOnlyRepo{docs: sampleDocs(t)}, nil)

	data, err := svc.ExportBidsJSON(context.Background())
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "a.pdf", rows[0]["source_file"])
	assert.Equal(t, "GEMC-1", rows[0]["bid_number"])
	assert.Equal(t, "2023-04-05", rows[0]["dated"])

	fields, ok := rows[0]["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ministry Of Defence", fields["ministry"])
}

func TestExport_RepositoryError(t *testing.T) {
	svc := NewService(&listOnlyRepo{err: errors.New("db down")}, nil)

	_, err := svc.ExportBidsXLSX(context.Background())
	assert.Error(t, err)
	_, err = svc.ExportBidsJSON(context.Background())
	assert.Error(t, err)
}

func TestSanitizeCell(t *testing.T) {
	assert.Equal(t, "ab", sanitizeCell("a\x00\x1fb"))
	assert.Equal(t, "a\nb\tc", sanitizeCell("a\nb\tc"))
}
