// Package repository provides api.Repository implementations: an
// in-memory store for tests and single-process runs, and a sqlite-backed
// store for durable single-node deployments (§6 persisted state).
package repository
