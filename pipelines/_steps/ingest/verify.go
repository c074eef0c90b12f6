package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/t2bot/snapshot-repo/common"
)

// VerifyHash checks that hash is the md5 of data, which is how the renderer names snapshots.
func VerifyHash(data []byte, hash string) error {
	sum := md5.Sum(data)
	actual := hex.EncodeToString(sum[:])
	if !strings.EqualFold(actual, hash) {
		return fmt.Errorf("%w: expected %s, got %s", common.ErrHashMismatch, hash, actual)
	}
	return nil
}
