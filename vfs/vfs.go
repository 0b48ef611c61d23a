package vfs

import (
	"io"
)

// must stay cheap to construct: only metadata (name, path),
// no os calls before Open/List/CreateFile
type Element interface {
	Name() string
	IsDirectory() bool
}

type File interface {
	Element
	Size() int64
	Open(readonly bool) error
	Close() error
	Reader() (*io.SectionReader, error)
	Copy(src io.Reader) error
}

type Directory interface {
	Element
	List() ([]string, error)
	GetFile(name string) (File, error)
	CreateFile(name string) (File, error)
	Remove(name string) error
}
