package main

import (
	"context"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/pflag"

	"github.com/hupe1980/truthbits/blobstore"
	"github.com/hupe1980/truthbits/blobstore/minio"
	"github.com/hupe1980/truthbits/blobstore/s3"
)

// storeFlags selects and configures a blob store backend.
type storeFlags struct {
	kind      string
	dir       string
	bucket    string
	prefix    string
	endpoint  string
	region    string
	accessKey string
	secretKey string
	insecure  bool
}

func (f *storeFlags) register(fs *pflag.FlagSet, defaultKind string) {
	fs.StringVar(&f.kind, "store", defaultKind, "Blob store: none, local, minio or s3.")
	fs.StringVar(&f.dir, "dir", "truthbits-data", "Directory of the local store.")
	fs.StringVar(&f.bucket, "bucket", "", "Bucket of the minio or s3 store.")
	fs.StringVar(&f.prefix, "prefix", "", "Name prefix of the run's blobs, e.g. runs/n40/.")
	fs.StringVar(&f.endpoint, "endpoint", "", "Endpoint of the minio store, or a custom S3 endpoint.")
	fs.StringVar(&f.region, "region", "", "AWS region of the s3 store.")
	fs.StringVar(&f.accessKey, "access-key", "", "Access key of the minio store.")
	fs.StringVar(&f.secretKey, "secret-key", "", "Secret key of the minio store.")
	fs.BoolVar(&f.insecure, "insecure", false, "Use plain HTTP for the minio store.")
}

// open returns nil for the none store.
func (f *storeFlags) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch f.kind {
	case "none", "":
		return nil, nil
	case "local":
		return blobstore.NewLocalStore(f.dir), nil
	case "minio":
		if f.endpoint == "" || f.bucket == "" {
			return nil, fmt.Errorf("minio store needs --endpoint and --bucket")
		}
		client, err := miniogo.New(f.endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(f.accessKey, f.secretKey, ""),
			Secure: !f.insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		store := minio.NewStore(client, f.bucket, "")
		if err := store.EnsureBucket(ctx, f.region); err != nil {
			return nil, fmt.Errorf("minio bucket %s: %w", f.bucket, err)
		}
		return store, nil
	case "s3":
		if f.bucket == "" {
			return nil, fmt.Errorf("s3 store needs --bucket")
		}
		var opts []s3.Option
		if f.region != "" {
			opts = append(opts, s3.WithRegion(f.region))
		}
		if f.endpoint != "" {
			opts = append(opts, s3.WithEndpoint(f.endpoint))
		}
		store, err := s3.New(ctx, f.bucket, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want none, local, minio or s3)", f.kind)
	}
}
