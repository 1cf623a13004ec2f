package truthbits

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/truthbits/blobstore"
	"github.com/hupe1980/truthbits/codec"
	"github.com/hupe1980/truthbits/internal/bigcount"
	"github.com/hupe1980/truthbits/internal/hash"
)

// ManifestName is the blob name of a run manifest, relative to the run prefix.
const ManifestName = "manifest.json"

const manifestVersion = 1

// Manifest records the parameters and stored batches of a run.
type Manifest struct {
	Version     int          `json:"version"`
	Inputs      int          `json:"inputs"`
	UseBits     int          `json:"use_bits"`
	Keep        []int        `json:"keep,omitempty"`
	Compression string       `json:"compression"`
	Codec       string       `json:"codec"`
	Next        string       `json:"next"` // hex row index of the next batch
	Done        bool         `json:"done"`
	Batches     []BatchEntry `json:"batches"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// BatchEntry describes one stored batch.
type BatchEntry struct {
	Name   string `json:"name"`
	Status string `json:"status"` // hex row index of the first row
	Size   int64  `json:"size"`
	CRC32C string `json:"crc32c"`
}

// CanonicalStatus returns the hex row index s in the form used by
// Batch.Status and manifests: lowercase without leading zeros, "0" for zero.
func CanonicalStatus(s string) (string, error) {
	c, err := new(bigcount.Counter).SetString(s)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func formatStatus(status []byte) string {
	return new(bigcount.Counter).SetBytes(status).String()
}

// NextStatus decodes Next into big-endian bytes. It fails when Next does
// not lie past every stored batch.
func (m *Manifest) NextStatus() ([]byte, error) {
	next, err := new(bigcount.Counter).SetString(m.Next)
	if err != nil {
		return nil, fmt.Errorf("%w: next: %v", ErrCorruptManifest, err)
	}
	if err := m.checkOrder(next); err != nil {
		return nil, err
	}
	return next.Bytes(), nil
}

func (m *Manifest) setNext(status []byte) {
	m.Next = formatStatus(status)
}

// checkOrder verifies that batch statuses ascend and stay below next.
func (m *Manifest) checkOrder(next *bigcount.Counter) error {
	var prev *bigcount.Counter
	for _, e := range m.Batches {
		cur, err := new(bigcount.Counter).SetString(e.Status)
		if err != nil {
			return fmt.Errorf("%w: batch %s: %v", ErrCorruptManifest, e.Name, err)
		}
		if prev != nil && prev.Cmp(cur) >= 0 {
			return fmt.Errorf("%w: batch %s at %s does not follow %s", ErrCorruptManifest, e.Name, e.Status, prev)
		}
		prev = cur
	}
	if prev != nil && prev.Cmp(next) >= 0 {
		return fmt.Errorf("%w: next %s does not follow batch %s", ErrCorruptManifest, m.Next, prev)
	}
	return nil
}

func (m *Manifest) check(inputs, useBits int, keep []int, c codec.Compression) error {
	switch {
	case m.Version != manifestVersion:
		return fmt.Errorf("%w: version %d", ErrManifestMismatch, m.Version)
	case m.Inputs != inputs:
		return fmt.Errorf("%w: inputs %d, generator has %d", ErrManifestMismatch, m.Inputs, inputs)
	case m.UseBits != useBits:
		return fmt.Errorf("%w: use bits %d, generator has %d", ErrManifestMismatch, m.UseBits, useBits)
	case !slices.Equal(m.Keep, keep):
		return fmt.Errorf("%w: keep %v, generator has %v", ErrManifestMismatch, m.Keep, keep)
	case m.Compression != c.String():
		return fmt.Errorf("%w: compression %s, generator has %s", ErrManifestMismatch, m.Compression, c)
	}
	return nil
}

// LoadManifest reads the manifest stored under prefix. A missing manifest
// is reported with an error matching blobstore.ErrNotFound.
func LoadManifest(ctx context.Context, store blobstore.BlobStore, prefix string) (*Manifest, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	data, err := blobstore.ReadAll(ctx, store, prefix+ManifestName)
	if err != nil {
		return nil, err
	}

	// Every built-in codec writes plain JSON.
	m := &Manifest{}
	if err := codec.Default.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func saveManifest(ctx context.Context, store blobstore.BlobStore, prefix string, c codec.Codec, m *Manifest) (int64, error) {
	m.UpdatedAt = time.Now().UTC()
	m.Codec = c.Name()

	data, err := c.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("encode manifest: %w", err)
	}
	return int64(len(data)), store.Put(ctx, prefix+ManifestName, data)
}

// ReadBatch loads and checks one stored batch of a run. The caller owns the
// returned batch and should Release it.
func ReadBatch(ctx context.Context, store blobstore.BlobStore, prefix string, entry BatchEntry) (*codec.Batch, error) {
	b, _, err := readBatch(ctx, store, prefix, entry)
	return b, err
}

func readBatch(ctx context.Context, store blobstore.BlobStore, prefix string, entry BatchEntry) (*codec.Batch, codec.Compression, error) {
	if store == nil {
		return nil, 0, ErrNoStore
	}
	data, err := blobstore.ReadAll(ctx, store, prefix+entry.Name)
	if err != nil {
		return nil, 0, err
	}

	if got := hash.Format(hash.CRC32C(data)); got != entry.CRC32C {
		return nil, 0, &ErrCorruptBatch{Name: entry.Name, Want: entry.CRC32C, Got: got}
	}

	c, err := codec.CompressionOf(data)
	if err != nil {
		return nil, 0, &ErrCorruptBatch{Name: entry.Name, cause: err}
	}
	b, err := codec.Unmarshal(data)
	if err != nil {
		return nil, 0, &ErrCorruptBatch{Name: entry.Name, cause: err}
	}
	if got := formatStatus(b.Status); got != entry.Status {
		b.Release()
		return nil, 0, &ErrCorruptBatch{Name: entry.Name, cause: fmt.Errorf("status %s, manifest has %s", got, entry.Status)}
	}
	return b, c, nil
}

// VerifyRun loads the manifest under prefix and checks every batch it lists.
func VerifyRun(ctx context.Context, store blobstore.BlobStore, prefix string) (*Manifest, error) {
	m, err := LoadManifest(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	if _, err := m.NextStatus(); err != nil {
		return m, err
	}
	for _, entry := range m.Batches {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		b, c, err := readBatch(ctx, store, prefix, entry)
		if err != nil {
			return m, err
		}
		mismatch := b.Inputs != m.Inputs || b.UseBits != m.UseBits
		b.Release()
		if mismatch {
			return m, &ErrCorruptBatch{Name: entry.Name, cause: fmt.Errorf("%w: batch shape", ErrManifestMismatch)}
		}
		if c.String() != m.Compression {
			return m, &ErrCorruptBatch{Name: entry.Name, cause: fmt.Errorf("%w: compression %s, manifest has %s", ErrManifestMismatch, c, m.Compression)}
		}
	}
	return m, nil
}
