package vfs

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) (*DirectoryDriver, error) {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return nil, fmt.Errorf("Cannot create directory '%s': %v", path, err)
	}
	return &DirectoryDriver{path: path}, nil
}

func (dd *DirectoryDriver) Name() string {
	return filepath.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) List() ([]string, error) {
	fileinfos, err := ioutil.ReadDir(dd.path)
	if err != nil {
		return nil, fmt.Errorf("Error getting directory '%s' info: %v", dd.path, err)
	}
	result := make([]string, 0, len(fileinfos))
	for _, f := range fileinfos {
		if !f.IsDir() {
			result = append(result, f.Name())
		}
	}
	return result, nil
}

func (dd *DirectoryDriver) GetFile(name string) (File, error) {
	newPath := filepath.Join(dd.path, filepath.Base(name))
	if s, err := os.Stat(newPath); err != nil {
		return nil, fmt.Errorf("Stat error: %v", err)
	} else if s.IsDir() {
		return nil, fmt.Errorf("'%s' is directory, not a file", name)
	}
	return newDirectoryDriverFile(newPath), nil
}

func (dd *DirectoryDriver) CreateFile(name string) (File, error) {
	newPath := filepath.Join(dd.path, filepath.Base(name))
	f, err := os.OpenFile(newPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("file '%s' creation failure: %v", newPath, err)
	}
	f.Close()
	return newDirectoryDriverFile(newPath), nil
}

func (dd *DirectoryDriver) Remove(name string) error {
	return os.Remove(filepath.Join(dd.path, filepath.Base(name)))
}

type DirectoryDriverFile struct {
	path string
	f    *os.File
}

func newDirectoryDriverFile(path string) *DirectoryDriverFile {
	return &DirectoryDriverFile{path: path}
}

func (ddf *DirectoryDriverFile) Name() string {
	return filepath.Base(ddf.path)
}

func (ddf *DirectoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *DirectoryDriverFile) Path() string {
	return ddf.path
}

func (ddf *DirectoryDriverFile) Size() int64 {
	if stat, err := os.Stat(ddf.path); err != nil {
		return 0
	} else {
		return stat.Size()
	}
}

func (ddf *DirectoryDriverFile) Open(readonly bool) error {
	if ddf.f != nil {
		return fmt.Errorf("File already opened")
	}
	flags := os.O_RDWR
	if readonly {
		flags = os.O_RDONLY
	}
	f, err := os.OpenFile(ddf.path, flags, 0)
	if err != nil {
		return fmt.Errorf("os.Open('%s'): %v", ddf.path, err)
	}
	ddf.f = f
	return nil
}

func (ddf *DirectoryDriverFile) Close() error {
	if ddf.f != nil {
		if err := ddf.f.Close(); err != nil {
			return fmt.Errorf("os.File.Close(): %v", err)
		}
		ddf.f = nil
	}
	return nil
}

func (ddf *DirectoryDriverFile) Reader() (*io.SectionReader, error) {
	if ddf.f == nil {
		return nil, fmt.Errorf("First you need to open file")
	}
	return io.NewSectionReader(ddf.f, 0, ddf.Size()), nil
}

func (ddf *DirectoryDriverFile) Copy(src io.Reader) error {
	ddf.Close()

	f, err := os.Create(ddf.path)
	if err != nil {
		return fmt.Errorf("os.Create('%s'): %v", ddf.path, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("io.Copy(...): %v", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("os.File.Sync(): %v", err)
	}
	return f.Close()
}
