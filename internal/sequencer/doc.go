// Package sequencer serializes uploads and placements against the remote
// session.
//
// One face at a time, it blocks on the delivery queue until the download
// pipeline produces the next image, then performs upload-then-insert for it.
// Arrival order decides processing order across images; within one image,
// slots are placed strictly sequentially.
package sequencer
