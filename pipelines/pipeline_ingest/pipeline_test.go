package pipeline_ingest

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metastore"
	"github.com/t2bot/snapshot-repo/types"
)

type recordingBlobs struct {
	lock    sync.Mutex
	written map[string][]byte
	fail    error
}

func (b *recordingBlobs) Upload(ctx rcontext.RequestContext, hash string, data []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.fail != nil {
		return b.fail
	}
	if b.written == nil {
		b.written = make(map[string][]byte)
	}
	b.written[hash] = data
	return nil
}

type recordingSender struct {
	lock    sync.Mutex
	jobs    []types.NotificationJob
	failFor map[string]bool
	calls   map[string]int
}

func (s *recordingSender) Send(ctx rcontext.RequestContext, job *types.NotificationJob) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[job.Url]++
	if s.failFor[job.Url] {
		return errors.New("queue unavailable")
	}
	s.jobs = append(s.jobs, *job)
	return nil
}

type fixture struct {
	meta     *metastore.MemoryStore
	blobs    *recordingBlobs
	sender   *recordingSender
	pipeline *Pipeline
}

func newFixture(verify bool) *fixture {
	f := &fixture{
		meta:   metastore.NewMemoryStore(""),
		blobs:  &recordingBlobs{},
		sender: &recordingSender{},
	}
	f.pipeline = New(f.meta, f.blobs, f.sender, func(hash string) string {
		return "https://snapshots.example.org/" + hash + ".png"
	}, nil, Options{
		HistoryTtl:      365 * 24 * time.Hour,
		VerifyHash:      verify,
		EnqueueAttempts: 3,
		EnqueueBackOff:  time.Millisecond,
	})
	return f
}

func (f *fixture) subscribe(t *testing.T, subs ...*types.WebhookSubscription) {
	for _, s := range subs {
		require.NoError(t, f.meta.PutWebhook(rcontext.Initial(), s))
	}
}

func TestFirstIngestWritesEverything(t *testing.T) {
	f := newFixture(false)
	f.subscribe(t,
		&types.WebhookSubscription{Id: "d", Type: types.SubscriberDiscord, Url: "https://discord.example.org/hook"},
		&types.WebhookSubscription{Id: "s", Type: types.SubscriberSlack, Url: "https://slack.example.org/hook", AuthSecretRef: "SLACK_TOKEN"},
	)
	ctx := rcontext.Initial()

	res, err := f.pipeline.Execute(ctx, "2024-01-01", "h1", []byte("png-1"))
	require.NoError(t, err)
	assert.Equal(t, &Result{Changed: true, Enqueued: 2, Failed: 0}, res)
	assert.Equal(t, []byte("png-1"), f.blobs.written["h1"])

	latest, err := f.meta.Get(ctx, types.LatestKey)
	require.NoError(t, err)
	assert.Equal(t, "h1", latest.Hash)
	assert.Equal(t, "2024-01-01", latest.Date)
	assert.False(t, latest.HasExpiry())

	dated, err := f.meta.Get(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "h1", dated.Hash)
	assert.True(t, dated.HasExpiry())
	assert.WithinDuration(t, time.Now().Add(365*24*time.Hour), dated.ExpiresAt, time.Minute)

	require.Len(t, f.sender.jobs, 2)
	byUrl := map[string]types.NotificationJob{}
	for _, j := range f.sender.jobs {
		byUrl[j.Url] = j
	}
	slack := byUrl["https://slack.example.org/hook"]
	assert.Equal(t, types.SubscriberSlack, slack.Type)
	assert.Equal(t, "SLACK_TOKEN", slack.AuthSecretRef)
	assert.Equal(t, "h1", slack.Hash)
	assert.Equal(t, "2024-01-01", slack.Date)
	assert.Equal(t, "https://snapshots.example.org/h1.png", slack.FileUrl)
	assert.Equal(t, types.SubscriberDiscord, byUrl["https://discord.example.org/hook"].Type)
}

func TestRepeatedHashIsDeduplicated(t *testing.T) {
	f := newFixture(false)
	f.subscribe(t, &types.WebhookSubscription{Id: "d", Type: types.SubscriberDiscord, Url: "https://discord.example.org/hook"})
	ctx := rcontext.Initial()

	_, err := f.pipeline.Execute(ctx, "2024-01-01", "h1", []byte("png"))
	require.NoError(t, err)
	f.blobs.written = nil

	res, err := f.pipeline.Execute(ctx, "2024-01-02", "h1", []byte("png"))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 0, res.Enqueued)
	assert.Empty(t, f.blobs.written)
	assert.Len(t, f.sender.jobs, 1) // only the first ingest notified

	// LATEST still moves to the newest date and the dated entry is written
	latest, err := f.meta.Get(ctx, types.LatestKey)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", latest.Date)
	dated, err := f.meta.Get(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "h1", dated.Hash)
}

func TestBlobFailureWritesNoMetadata(t *testing.T) {
	f := newFixture(false)
	f.blobs.fail = errors.New("s3 down")
	ctx := rcontext.Initial()

	res, err := f.pipeline.Execute(ctx, "2024-01-01", "h1", []byte("png"))
	assert.Error(t, err)
	assert.Nil(t, res)

	latest, err := f.meta.Get(ctx, types.LatestKey)
	assert.NoError(t, err)
	assert.Nil(t, latest)
	dated, err := f.meta.Get(ctx, "2024-01-01")
	assert.NoError(t, err)
	assert.Nil(t, dated)
	assert.Empty(t, f.sender.jobs)
}

func TestEnqueueFailuresDoNotFailIngest(t *testing.T) {
	f := newFixture(false)
	f.sender.failFor = map[string]bool{"https://broken.example.org": true}
	f.subscribe(t,
		&types.WebhookSubscription{Id: "ok", Type: types.SubscriberStatusFeed, Url: "https://ok.example.org"},
		&types.WebhookSubscription{Id: "broken", Type: types.SubscriberSlack, Url: "https://broken.example.org"},
	)

	res, err := f.pipeline.Execute(rcontext.Initial(), "2024-01-01", "h1", []byte("png"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Enqueued)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 3, f.sender.calls["https://broken.example.org"])
	assert.Equal(t, 1, f.sender.calls["https://ok.example.org"])
}

func TestNoSubscribersNoJobs(t *testing.T) {
	f := newFixture(false)
	res, err := f.pipeline.Execute(rcontext.Initial(), "2024-01-01", "h1", []byte("png"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 0, res.Enqueued)
}

func TestHashVerification(t *testing.T) {
	f := newFixture(true)
	data := []byte("rendered screenshot")
	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])

	_, err := f.pipeline.Execute(rcontext.Initial(), "2024-01-01", "not-the-hash", data)
	assert.ErrorIs(t, err, common.ErrHashMismatch)
	assert.Empty(t, f.blobs.written)

	res, err := f.pipeline.Execute(rcontext.Initial(), "2024-01-01", hash, data)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}
