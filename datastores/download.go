package datastores

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
)

func (d *Datastore) Exists(ctx rcontext.RequestContext, hash string) (bool, error) {
	objectName, err := d.ObjectName(hash)
	if err != nil {
		return false, err
	}
	if d.conf.Type == TypeS3 {
		metrics.S3Operations.With(prometheus.Labels{"operation": "StatObject"}).Inc()
		_, err := d.s3c.client.StatObject(ctx.Context, d.s3c.bucket, objectName, minio.StatObjectOptions{})
		if err != nil {
			var merr minio.ErrorResponse
			if errors.As(err, &merr) {
				if merr.Code == "NoSuchKey" || merr.StatusCode == http.StatusNotFound {
					return false, nil
				}
			}
			return false, err
		}
		return true, nil
	} else if d.conf.Type == TypeFile {
		_, err := os.Stat(path.Join(d.conf.Options["path"], objectName))
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}
	return false, errors.New("unknown datastore type - contact developer")
}

func (d *Datastore) Download(ctx rcontext.RequestContext, hash string) (io.ReadSeekCloser, error) {
	objectName, err := d.ObjectName(hash)
	if err != nil {
		return nil, err
	}
	if d.conf.Type == TypeS3 {
		metrics.S3Operations.With(prometheus.Labels{"operation": "GetObject"}).Inc()
		return d.s3c.client.GetObject(ctx.Context, d.s3c.bucket, objectName, minio.GetObjectOptions{})
	} else if d.conf.Type == TypeFile {
		f, err := os.Open(path.Join(d.conf.Options["path"], objectName))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, common.ErrBlobNotFound
			}
			return nil, err
		}
		return f, nil
	}
	return nil, errors.New("unknown datastore type - contact developer")
}
