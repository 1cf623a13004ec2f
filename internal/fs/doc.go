// Package fs abstracts the file operations of the local blob store so that
// tests can inject I/O failures.
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs, closes
//     or renames of files whose path matches a rule
//
// Usage:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("batch-", fs.Fault{FailOnSync: true})
//	// hand ffs to the store under test
//
// Operations take no context: local file calls cannot be interrupted at
// the syscall level.
package fs
