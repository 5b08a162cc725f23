// Package exiftool reads lens and exposure metadata from raw images by
// batching a single exiftool -json invocation per directory.
//
// Read and ReadFiles return one lens.ImageSample per image, ordered by path.
// A client built WithSkipBadFiles(true) drops unusable files and reports them
// in Batch.Failures; otherwise the first failure aborts the batch. Tag writes
// lens tags into images shot with manual lenses so later reads succeed.
package exiftool
