// Package mmapfile implements an append-only, growable, memory-mapped object
// store. Records are serialized through a codec and written at caller chosen
// offsets; the caller keeps the returned location (offset and length) in an
// index of its own. The file carries no header, footer or length table.
//
// # Growth
//
// The full MaxSize range of address space is reserved when the file is
// opened. The file itself starts at GrowthStep bytes and is extended in
// GrowthStep increments beneath that reservation, so the mapped address never
// moves. After every insert the writer keeps room for one more worst-case
// record (MaxObjectSize bytes) past the end of the record just written.
//
// # Concurrency
//
// There is exactly one Writer per open file. Readers are small values that
// can be copied freely and used from any number of goroutines. Reads take no
// locks: bytes that have been written are never modified again, and the
// capacity readers check against is published only after the file has been
// extended to back it.
//
// Flush is the visibility boundary. A read that starts after Flush returns
// observes every insert made before it. Callers must not hand out a location
// before the Flush that follows its insert.
package mmapfile
