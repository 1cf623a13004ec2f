// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("tables/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	gen, err := truthbits.NewGenerator(40, truthbits.WithStore(store))
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart streaming uploads with CRC32C checksums
//   - Conditional writes (PutIfAbsent) for write-once blobs
//   - Automatic pagination for listing
//   - Configurable prefix for run isolation
package s3
