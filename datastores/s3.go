package datastores

import (
	"context"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/config"
)

type s3 struct {
	client       *minio.Client
	storageClass string
	bucket       string
}

func newS3(conf config.BlobsConfig) (*s3, error) {
	endpoint := conf.Options["endpoint"]
	bucket := conf.Options["bucketName"]
	accessKeyId := conf.Options["accessKeyId"]
	accessSecret := conf.Options["accessSecret"]
	region := conf.Options["region"]
	storageClass, hasStorageClass := conf.Options["storageClass"]
	useSslStr, hasSsl := conf.Options["ssl"]

	if !hasStorageClass {
		storageClass = "STANDARD"
	}

	useSsl := true
	if hasSsl && useSslStr != "" {
		useSsl, _ = strconv.ParseBool(useSslStr)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Region: region,
		Secure: useSsl,
		Creds:  credentials.NewStaticV4(accessKeyId, accessSecret, ""),
	})
	if err != nil {
		return nil, err
	}

	return &s3{
		client:       client,
		storageClass: storageClass,
		bucket:       bucket,
	}, nil
}

// EnsureBucketExists is called at startup; a missing bucket is only a warning.
func (d *Datastore) EnsureBucketExists(ctx context.Context) {
	if d.s3c == nil {
		return
	}
	exists, err := d.s3c.client.BucketExists(ctx, d.s3c.bucket)
	if err != nil {
		logrus.Warn("Unable to check bucket: ", err)
	} else if !exists {
		logrus.Warnf("Bucket %s does not exist!", d.s3c.bucket)
	}
}
