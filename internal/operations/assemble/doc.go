// Package assemble turns one group of parts into one output object.
//
// An empty group writes nothing. A single part is copied server-side. Larger
// groups go through a multipart upload: parts above the minimum part size are
// copied server-side in their original order, and the remaining small parts
// are downloaded, merged in their original order and uploaded as the final
// part. When small and large parts are interleaved the output therefore holds
// all large parts first, followed by the merged small parts.
package assemble
