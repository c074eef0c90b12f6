package datastores

import (
	"errors"
	"os"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
)

func (d *Datastore) Remove(ctx rcontext.RequestContext, hash string) error {
	objectName, err := d.ObjectName(hash)
	if err != nil {
		return err
	}
	if d.conf.Type == TypeS3 {
		metrics.S3Operations.With(prometheus.Labels{"operation": "RemoveObject"}).Inc()
		return d.s3c.client.RemoveObject(ctx.Context, d.s3c.bucket, objectName, minio.RemoveObjectOptions{})
	} else if d.conf.Type == TypeFile {
		err = os.Remove(path.Join(d.conf.Options["path"], objectName))
		if err != nil && os.IsNotExist(err) {
			return nil // not existing means it was deleted, as far as we care
		}
		return err
	}
	return errors.New("unknown datastore type - contact developer")
}
