// Package mmap provides read-only memory-mapped file access.
//
//	m, err := mmap.Open("fru-M-200266.swc")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix platforms use mmap(2) via golang.org/x/sys/unix; Windows uses
// CreateFileMapping/MapViewOfFile. A Mapping is safe for concurrent reads;
// callers must not use Bytes after Close.
package mmap
