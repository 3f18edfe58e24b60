// Package s3 provides an Amazon S3 implementation of blobstore.Store and a
// DynamoDB-backed catalog.Catalog.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("skeletons/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	tables, err := s3.NewDDBCatalog(ctx, "nblast-tables", "s3://my-bucket/tables/")
//
// # Features
//
//   - Uploads through the SDK transfer manager (multipart for large tables)
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Compare-and-swap publication of the current score table
package s3
