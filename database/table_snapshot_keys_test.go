package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"ns:":        "ns:",
		"100%":       `100\%`,
		"my_ns:":     `my\_ns:`,
		`back\slash`: `back\\slash`,
	}
	for in, expected := range tests {
		assert.Equal(t, expected, escapeLike(in), in)
	}
}

func TestSnapshotKeyExpiry(t *testing.T) {
	assert.False(t, (&DbSnapshotKey{}).IsExpired())
	assert.True(t, (&DbSnapshotKey{ExpiresTs: time.Now().Add(-time.Minute).UnixMilli()}).IsExpired())
	assert.False(t, (&DbSnapshotKey{ExpiresTs: time.Now().Add(time.Minute).UnixMilli()}).IsExpired())
}
