// Package refdex provides a local, CLI-based mirror of a remote reference
// library. It synchronizes bibliographic items and their attachments to
// disk, maintains a per-embedding-model semantic index over the mirrored
// documents, and answers natural language questions against the indexed
// passages.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, zotero/, qdrant/).
package refdex
