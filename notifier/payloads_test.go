package notifier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/snapshot-repo/types"
)

func testJob(t types.SubscriberType) *types.NotificationJob {
	return &types.NotificationJob{
		Type:    t,
		Url:     "https://hooks.example.org",
		Hash:    "abc123",
		Date:    "2024-01-02",
		FileUrl: "https://snapshots.example.org/abc123.png",
	}
}

func TestRenderDiscord(t *testing.T) {
	p, err := Render(testJob(types.SubscriberDiscord))
	require.NoError(t, err)
	assert.Equal(t, "application/json", p.ContentType)

	msg := discordMessage{}
	require.NoError(t, json.Unmarshal(p.Body, &msg))
	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, "https://snapshots.example.org/abc123.png", msg.Embeds[0].Image.Url)
	assert.Equal(t, "2024-01-02", msg.Embeds[0].Title)
}

func TestRenderSlack(t *testing.T) {
	p, err := Render(testJob(types.SubscriberSlack))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"New snapshot for 2024-01-02: <https://snapshots.example.org/abc123.png|abc123>"}`, string(p.Body))
}

func TestRenderStatusFeed(t *testing.T) {
	p, err := Render(testJob(types.SubscriberStatusFeed))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"snapshot.updated","hash":"abc123","date":"2024-01-02","file":"https://snapshots.example.org/abc123.png"}`, string(p.Body))
}

func TestRenderUnknownTypeIsPlainText(t *testing.T) {
	p, err := Render(testJob("carrier-pigeon"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", p.ContentType)
	assert.Equal(t, "Snapshot content changed on 2024-01-02: https://snapshots.example.org/abc123.png", string(p.Body))
}

func TestConfigSecrets(t *testing.T) {
	t.Setenv("SNAPSHOT_TEST_SECRET", "from-env")
	s := NewConfigSecrets(map[string]string{"CONFIGURED": "from-config"})
	assert.Equal(t, "from-config", s.Resolve("CONFIGURED"))
	assert.Equal(t, "from-env", s.Resolve("SNAPSHOT_TEST_SECRET"))
	assert.Equal(t, "", s.Resolve("MISSING_SECRET_REF"))
	assert.Equal(t, "", s.Resolve(""))
}
