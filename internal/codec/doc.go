// Package codec converts between the workflow configuration tree and the
// config file text stored in a project directory.
//
// Encode and Decode are pure functions with no I/O. Decoding fails with a
// *FormatError when the text is not a YAML mapping or a known field has the
// wrong shape; the error matches ErrFormat through errors.Is.
//
// For every tree held by workflow.Store, Decode(Encode(cfg)) is equal to cfg.
package codec
