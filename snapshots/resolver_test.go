package snapshots

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/types"
)

type fakeMeta map[string]*types.MetadataEntry

func (f fakeMeta) Get(ctx rcontext.RequestContext, key string) (*types.MetadataEntry, error) {
	if key == "broken" {
		return nil, errors.New("connection refused")
	}
	return f[key], nil
}

type fakeBlobs map[string]bool

func (f fakeBlobs) Exists(ctx rcontext.RequestContext, hash string) (bool, error) {
	return f[hash], nil
}

func newTestResolver() *Resolver {
	meta := fakeMeta{
		types.LatestKey: {Key: types.LatestKey, Hash: "h2", Date: "2024-01-02"},
		"2024-01-01":    {Key: "2024-01-01", Hash: "h1"},
		"2024-01-02":    {Key: "2024-01-02", Hash: "h2"},
		"2023-06-01":    {Key: "2023-06-01", Hash: "gone"},
	}
	blobs := fakeBlobs{"h1": true, "h2": true}
	return NewResolver(meta, blobs, "https://snapshots.example.org/", "png")
}

func TestResolveLatestUsesCanonicalDate(t *testing.T) {
	r := newTestResolver()
	record, err := r.Resolve(rcontext.Initial(), types.LatestKey)
	assert.NoError(t, err)
	assert.Equal(t, &Record{
		Hash:    "h2",
		Date:    "2024-01-02",
		FileUrl: "https://snapshots.example.org/h2.png",
	}, record)
}

func TestResolveDefaultsToLatest(t *testing.T) {
	r := newTestResolver()
	record, err := r.Resolve(rcontext.Initial(), "")
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-02", record.Date)
}

func TestResolveDatedKey(t *testing.T) {
	r := newTestResolver()
	record, err := r.Resolve(rcontext.Initial(), "2024-01-01")
	assert.NoError(t, err)
	assert.Equal(t, "h1", record.Hash)
	assert.Equal(t, "2024-01-01", record.Date)
	assert.Equal(t, "https://snapshots.example.org/h1.png", record.FileUrl)
}

func TestResolveMissingKey(t *testing.T) {
	r := newTestResolver()
	record, err := r.Resolve(rcontext.Initial(), "no-such-date")
	assert.Nil(t, record)
	assert.True(t, IsKeyMissing(err))
	assert.False(t, IsObjectMissing(err))
	assert.Equal(t, "no-such-date key not found", err.Error())
}

func TestResolveMissingObject(t *testing.T) {
	r := newTestResolver()
	record, err := r.Resolve(rcontext.Initial(), "2023-06-01")
	assert.Nil(t, record)
	assert.True(t, IsObjectMissing(err))
	assert.Equal(t, "2023-06-01 object not found", err.Error())
}

func TestResolveStoreFailureIsNotNotFound(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(rcontext.Initial(), "broken")
	assert.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestFileUrl(t *testing.T) {
	assert.Equal(t, "https://cdn.example.org/abc.png", FileUrl("https://cdn.example.org", "abc", "png"))
	assert.Equal(t, "https://cdn.example.org/abc.png", FileUrl("https://cdn.example.org/", "abc", ".png"))
	assert.Equal(t, "abc", ObjectName("abc", ""))
}

type gatedMeta struct {
	calls   atomic.Int32
	release chan struct{}
}

func (g *gatedMeta) Get(ctx rcontext.RequestContext, key string) (*types.MetadataEntry, error) {
	g.calls.Add(1)
	<-g.release
	return &types.MetadataEntry{Key: key, Hash: "h1"}, nil
}

func TestResolveSharesConcurrentLookups(t *testing.T) {
	meta := &gatedMeta{release: make(chan struct{})}
	r := NewResolver(meta, fakeBlobs{"h1": true}, "https://snapshots.example.org", "png")

	const callers = 5
	started := &sync.WaitGroup{}
	done := &sync.WaitGroup{}
	records := make([]*Record, callers)
	for i := 0; i < callers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			rec, err := r.Resolve(rcontext.Initial(), "2024-01-01")
			assert.NoError(t, err)
			records[i] = rec
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(meta.release)
	done.Wait()

	assert.LessOrEqual(t, meta.calls.Load(), int32(callers))
	assert.GreaterOrEqual(t, meta.calls.Load(), int32(1))
	for _, rec := range records {
		assert.Equal(t, "h1", rec.Hash)
	}
	records[0].Hash = "mutated"
	assert.Equal(t, "h1", records[1].Hash)
}

func TestValidHash(t *testing.T) {
	for _, hash := range []string{"abc", "d41d8cd98f00b204e9800998ecf8427e", "sha_256-AB"} {
		assert.True(t, ValidHash(hash), hash)
	}
	for _, hash := range []string{"", "../x", "a/b", `a\b`, "a.png", "a b", strings.Repeat("a", 129)} {
		assert.False(t, ValidHash(hash), hash)
	}
}
