// Package storage provides the durable key-value media the session store
// persists into.
//
// Three engines implement KVEngine:
//
//   - BadgerEngine: embedded on-disk store, the default for a workstation
//   - RedisEngine: shared medium for headless or containerized operators
//   - MemoryEngine: process-local, for tests and throwaway sessions
//
// Every engine applies a Batch atomically and serves GetMany from a single
// consistent view, which is what the session store relies on to keep its
// credential and identity slots in lockstep.
package storage
