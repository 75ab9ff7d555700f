// Package memory provides the in-memory metric registry.
//
// The Registry keeps two label-keyed maps, the current status and the last
// update timestamp of every tracked (node, isp) pair, and serves the four
// registry operations: export, upsert, backfill and delete.
//
// Thread Safety:
//
// A single RWMutex covers both maps. Export snapshots under RLock; every
// mutation, including the whole of a backfill batch, runs under Lock. Nothing
// is persisted: the registry lives exactly as long as the process.
package memory
