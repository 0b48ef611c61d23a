package vfs

import (
	"fmt"
	"io"
)

func OpenFileAndGetReader(f File, readonly bool) (*io.SectionReader, error) {
	if err := f.Open(readonly); err != nil {
		return nil, fmt.Errorf("Cannot open file '%s': %v", f.Name(), err)
	}
	r, err := f.Reader()
	if err != nil {
		defer f.Close()
		return nil, fmt.Errorf("Cannot get file '%s' reader: %v", f.Name(), err)
	}
	return r, nil
}

func OpenFileAndCopy(f File, src io.Reader) error {
	if err := f.Open(false); err != nil {
		return fmt.Errorf("Cannot open file '%s': %v", f.Name(), err)
	}
	defer f.Close()
	if err := f.Copy(src); err != nil {
		return fmt.Errorf("Cannot copy data to file '%s': %v", f.Name(), err)
	}
	return nil
}

// CreateFileAndCopy writes src into a new (or truncated) file inside d.
func CreateFileAndCopy(d Directory, name string, src io.Reader) error {
	f, err := d.CreateFile(name)
	if err != nil {
		return fmt.Errorf("Cannot create file '%s': %v", name, err)
	}
	return OpenFileAndCopy(f, src)
}
