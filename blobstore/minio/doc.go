// Package minio stores codebooks on MinIO or any other server speaking the
// S3 API through minio-go, for deployments that do not want the AWS SDK.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	if err != nil {
//	    return err
//	}
//	reg, err := codebook.NewRegistry(minioblob.NewStore(client, "quantizers", "codebooks"))
//
// Open fails with blobstore.ErrNotFound for missing keys. Reads at or past
// the end of an object report io.EOF.
package minio
