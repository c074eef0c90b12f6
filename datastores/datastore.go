package datastores

import (
	"errors"
	"fmt"

	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/config"
	"github.com/t2bot/snapshot-repo/snapshots"
)

const TypeS3 = "s3"
const TypeFile = "file"

// Datastore is the content-addressed blob store. Objects are named <hash>.<ext> and are never
// modified once written; writing the same hash again is harmless.
type Datastore struct {
	conf config.BlobsConfig
	ext  string
	s3c  *s3
}

func New(conf config.BlobsConfig, ext string) (*Datastore, error) {
	ds := &Datastore{conf: conf, ext: ext}
	if conf.Type == TypeS3 {
		s3c, err := newS3(conf)
		if err != nil {
			return nil, err
		}
		ds.s3c = s3c
	} else if conf.Type == TypeFile {
		if conf.Options["path"] == "" {
			return nil, errors.New("file datastore requires a path option")
		}
	} else {
		return nil, errors.New("unknown datastore type - check configuration")
	}
	return ds, nil
}

func (d *Datastore) Type() string {
	return d.conf.Type
}

// ObjectName maps a content hash to its object key. Hashes that could escape the
// datastore (path separators, dots) are refused.
func (d *Datastore) ObjectName(hash string) (string, error) {
	if !snapshots.ValidHash(hash) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidHash, hash)
	}
	return snapshots.ObjectName(hash, d.ext), nil
}

func (d *Datastore) GetUri() string {
	if d.conf.Type == TypeS3 {
		return fmt.Sprintf("s3://%s/%s", d.s3c.client.EndpointURL().Hostname(), d.s3c.bucket)
	}
	return d.conf.Options["path"]
}
