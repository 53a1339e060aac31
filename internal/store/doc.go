// Package store provides a small durable key/value store for opaque binary values.
//
// Values are grouped in buckets; FileStore keeps each bucket in its own
// directory with one file per key. The store never decodes what it holds, which
// lets callers persist values that have no faithful text representation, such as
// encoded directory capabilities.
package store
