// Package fileops provides the filesystem primitives the application builds
// on: validated path handling, a bounded directory scanner, and atomic writes.
//
// The scanner is the read side. It walks a project tree inside an os.Root
// boundary, skips build output and package caches, tolerates unreadable
// subtrees (recording them for evidence-gap reporting), and refuses symlinks
// that escape the scan root. Classification consumes its output.
//
// The write side is deliberately small: AtomicWrite and AtomicCopy go through
// a temp file and rename so a generated rules file is never left truncated,
// and EnsureDirectoryExists prepares target directories with 0755.
//
// Validation helpers gate every externally supplied path. ValidateDirPath is
// the single source of ErrInvalidPath for project roots; ValidateStoragePath
// and ValidateDirectoryWritable vet configured storage locations; reserved
// system directories are rejected on every platform.
package fileops
