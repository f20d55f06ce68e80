// Package mocks provides testify mocks for the stitchfs interfaces.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/stitchfs/stitchfs"
)

// FileSystem is a mock implementation of stitchfs.FileSystem.
type FileSystem struct {
	mock.Mock
}

// NewFileSystem creates a new instance of FileSystem. It also registers a testing interface
// on the mock and a cleanup function to assert the mocks expectations.
func NewFileSystem(t interface {
	mock.TestingT
	Cleanup(func())
}) *FileSystem {
	m := &FileSystem{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *FileSystem) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *FileSystem) Scheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *FileSystem) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *FileSystem) Exists(name string) (bool, error) {
	args := m.Called(name)
	return args.Bool(0), args.Error(1)
}

func (m *FileSystem) Stat(name string) (stitchfs.Info, error) {
	args := m.Called(name)
	return args.Get(0).(stitchfs.Info), args.Error(1)
}

func (m *FileSystem) SetStat(name string, info stitchfs.Info) error {
	args := m.Called(name, info)
	return args.Error(0)
}

func (m *FileSystem) List(name string) ([]string, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *FileSystem) Scan(name string) ([]stitchfs.Info, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stitchfs.Info), args.Error(1)
}

func (m *FileSystem) Mkdir(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *FileSystem) MkdirAll(name string, recreate bool) error {
	args := m.Called(name, recreate)
	return args.Error(0)
}

func (m *FileSystem) Open(name, mode string) (stitchfs.File, error) {
	args := m.Called(name, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(stitchfs.File), args.Error(1)
}

func (m *FileSystem) OpenText(name, mode string) (stitchfs.File, error) {
	args := m.Called(name, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(stitchfs.File), args.Error(1)
}

func (m *FileSystem) Remove(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *FileSystem) RemoveDir(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *FileSystem) Size(name string) (uint64, error) {
	args := m.Called(name)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *FileSystem) SysPath(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *FileSystem) Type(name string) (stitchfs.EntryType, error) {
	args := m.Called(name)
	return args.Get(0).(stitchfs.EntryType), args.Error(1)
}

func (m *FileSystem) URL(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *FileSystem) HasURL(name string) (bool, error) {
	args := m.Called(name)
	return args.Bool(0), args.Error(1)
}

func (m *FileSystem) IsDir(name string) (bool, error) {
	args := m.Called(name)
	return args.Bool(0), args.Error(1)
}

func (m *FileSystem) IsFile(name string) (bool, error) {
	args := m.Called(name)
	return args.Bool(0), args.Error(1)
}

func (m *FileSystem) ValidatePath(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *FileSystem) ReadBytes(name string) ([]byte, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *FileSystem) WriteBytes(name string, data []byte) error {
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *FileSystem) ReadText(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *FileSystem) WriteText(name, text string) error {
	args := m.Called(name, text)
	return args.Error(0)
}
