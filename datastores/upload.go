package datastores

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
)

// Upload stores the bytes for a content hash. The content type is sniffed from the data.
func (d *Datastore) Upload(ctx rcontext.RequestContext, hash string, data []byte) error {
	objectName, err := d.ObjectName(hash)
	if err != nil {
		return err
	}
	contentType := mimetype.Detect(data).String()
	size := int64(len(data))
	ctx.Log.Infof("Uploading %s (%s, %s) to %s datastore", objectName, contentType, humanize.Bytes(uint64(size)), d.conf.Type)

	var uploadedBytes int64
	if d.conf.Type == TypeS3 {
		metrics.S3Operations.With(prometheus.Labels{"operation": "PutObject"}).Inc()
		var info minio.UploadInfo
		info, err = d.s3c.client.PutObject(ctx.Context, d.s3c.bucket, objectName, bytes.NewReader(data), size, minio.PutObjectOptions{StorageClass: d.s3c.storageClass, ContentType: contentType})
		uploadedBytes = info.Size
	} else if d.conf.Type == TypeFile {
		basePath := d.conf.Options["path"]
		if err = os.MkdirAll(basePath, 0755); err != nil {
			return err
		}

		// Write to a temporary name first so readers never see a partial object
		targetFile := path.Join(basePath, objectName)
		tempFile := targetFile + ".tmp"
		var file *os.File
		file, err = os.OpenFile(tempFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		uploadedBytes, err = io.Copy(file, bytes.NewReader(data))
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err == nil {
			err = os.Rename(tempFile, targetFile)
		}
		if err != nil {
			_ = os.Remove(tempFile)
		}
	} else {
		return errors.New("unknown datastore type - contact developer")
	}

	if err != nil {
		return err
	}
	if uploadedBytes != size {
		if err = d.Remove(ctx, hash); err != nil {
			ctx.Log.Warn("Error deleting upload (delete attempted due to persistence error): ", err)
		}
		return fmt.Errorf("upload size mismatch: expected %d got %d bytes", size, uploadedBytes)
	}
	return nil
}
