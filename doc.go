// Package s3concat concatenates many small objects under a bucket folder into
// a few large output objects while moving as few bytes through the client as
// possible.
//
// Source objects are listed in key order and grouped greedily into runs of
// roughly MaxSize bytes. Each group becomes one output object:
//   - a single part is copied server-side
//   - parts larger than MinPartSize are copied server-side as multipart parts
//   - the remaining small parts are downloaded, merged and uploaded as the
//     final part of the same multipart upload
//
// Merged small parts are always written after the copied parts, so a group
// whose small parts precede large ones comes out reordered. Runs log a
// warning when that happens.
//
// A run has one of three modes. Stat only lists and groups. Full writes every
// group in order and stops at the first failure. Single writes one group by
// index and is the unit of external fan-out and retry.
//
// Example usage:
//
//	client, err := s3concat.New(
//	    s3concat.WithBucket("my-bucket"),
//	    s3concat.WithFolder("data/"),
//	    s3concat.WithOutput("combined/part"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// Write group 3 to combined/part-3
//	result, err := client.Single(ctx, 3)
//	if err != nil {
//	    return err
//	}
package s3concat
