// Package crud turns a set of transport functions into a cached resource
// with list, detail and stats reads, and create, update and delete mutations
// that keep the query cache consistent.
//
// Update and Delete are optimistic: the cached detail and any cached list
// pages are changed before the request is sent and restored from a snapshot
// when it fails. Mutations on one id are serialized. Nothing is retried.
package crud
