// Package querycache is the console's client-side query cache.
//
// Entries are JSON documents addressed by rendered querykey keys. A Cache
// serves fresh entries from its Store, collapses concurrent loads of one key
// into a single request, and tracks a generation per key so that a load which
// started before a write never installs its (older) result over that write.
//
// Mutations go through Tx: snapshot the keys, apply optimistic values, then
// Commit or Rollback to the snapshot.
package querycache
