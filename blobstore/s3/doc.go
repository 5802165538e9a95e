// Package s3 keeps codebook blobs in an Amazon S3 bucket.
//
//	store, err := s3.New(ctx, "ml-artifacts",
//	    s3.WithPrefix("quantizers/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	if err != nil {
//	    return err
//	}
//	reg, err := codebook.NewRegistry(store)
//
// Put sends the whole blob in one request with a CRC32C checksum and can be
// made create-only with If-None-Match. Create streams through the transfer
// manager and switches to multipart for large writes. Reads are ranged GETs
// and List follows continuation tokens.
package s3
