// Package depot provides a small file management service that keeps blobs in
// an object store and their metadata in a key-value store.
//
// depot coordinates two independent backends keyed by the same file id. The
// two are not transactionally linked: an upload writes the blob first and the
// metadata record second, and a failure in between leaves an orphaned blob.
//
// # Key Components
//
//   - FileService: upload, download, delete and search operations
//   - ObjectStore: blob persistence (S3, local filesystem)
//   - MetadataStore: record persistence (DynamoDB, Redis, Bolt, SQLite, PostgreSQL)
//   - LinkSigner: presigned download links for backends without native presigning
//
// # Example Usage
//
//	service, err := depot.NewFileService(objects, records, depot.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Upload a file
//	_, err = service.Upload(ctx, depot.UploadInput{FileID: "a.jpg", Content: data})
//
//	// Get a download link and the stored metadata
//	res, err := service.Download(ctx, "a.jpg")
//
// See the router package for the action based request envelope and the http
// and lambda packages for the transports built on top of it.
package depot
