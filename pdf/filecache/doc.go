// Package filecache keeps the raw content of index, info and grid files in
// memory so that members of a PDF set sharing one file read it only once.
//
// A Cache is an explicit context object: callers create one per execution
// context and pass it to whatever loads files. Content is obtained through a
// Fetcher, which hides where bytes come from:
//   - LocalFetcher reads the filesystem.
//   - ObjectFetcher reads s3:// paths from MinIO or any S3-compatible store.
//   - Router dispatches between the two by path scheme.
//   - Group.Member returns a fetcher for one worker of a broadcast group: only
//     rank 0 touches storage, every other rank receives the bytes it read.
//
// Broadcast reads are blocking collectives. Every member of a Group must read
// the same paths in the same order; a member that skips a read stalls the
// others. A cache hit on one member is a hit on all of them as long as they
// flush together, so hits never desynchronize the group.
//
// Files ending in .gz, .zst or .lz4 are decompressed on read and compressed
// on write.
package filecache
