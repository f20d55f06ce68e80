package mountfs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/backend/mem"
	"github.com/stitchfs/stitchfs/mocks"
	"github.com/stitchfs/stitchfs/mountfs"
)

/**********************************
 ************TESTS*****************
 **********************************/

type mountFSSuite struct {
	suite.Suite
}

func (s *mountFSSuite) TestSchemeAndName() {
	m := mountfs.New()
	s.Equal("mount", m.Scheme())
	s.Equal("Mount Filesystem", m.Name())
}

func (s *mountFSSuite) TestDefaultRouting() {
	// with no mounts, every operation lands on the default backend with the
	// caller's path passed through untouched
	def := mocks.NewFileSystem(s.T())
	def.On("List", "projects/2026/../").Return([]string{"readme.md"}, nil).Once()
	def.On("Exists", "/notes.txt").Return(true, nil).Once()
	def.On("IsFile", "/readme.txt").Return(true, nil).Once()

	m := mountfs.New(mountfs.WithDefaultFileSystem(def))

	names, err := m.List("projects/2026/../")
	s.NoError(err)
	s.Equal([]string{"readme.md"}, names)

	found, err := m.Exists("/notes.txt")
	s.NoError(err)
	s.True(found)

	isFile, err := m.IsFile("/readme.txt")
	s.NoError(err)
	s.True(isFile)
}

func (s *mountFSSuite) TestMountRoutingIsRelative() {
	tests := []struct {
		path     string
		relative string
		message  string
	}{
		{
			path:     "/data/file.txt",
			relative: "file.txt",
			message:  "file directly under the mount",
		},
		{
			path:     "/data/a/b/file.txt",
			relative: "a/b/file.txt",
			message:  "nested file keeps the subtree path",
		},
		{
			path:     "/data",
			relative: "",
			message:  "the mount point itself is the backend root",
		},
		{
			path:     "/data/",
			relative: "",
			message:  "trailing slash on the mount point",
		},
		{
			path:     "data/file.txt",
			relative: "file.txt",
			message:  "relative namespace path is normalized before routing",
		},
	}

	for _, test := range tests {
		s.Run(test.message, func() {
			mounted := mocks.NewFileSystem(s.T())
			mounted.On("Exists", test.relative).Return(true, nil).Once()

			m := mountfs.New(mountfs.WithAutoClose(false))
			s.NoError(m.Mount("/data", mounted))

			found, err := m.Exists(test.path)
			s.NoError(err, test.message)
			s.True(found, test.message)
		})
	}
}

func (s *mountFSSuite) TestAllOperationsForwardRelativePaths() {
	// every proxied operation must hand the backend the mount-relative path,
	// including the ones that take or return more than a path
	mounted := mocks.NewFileSystem(s.T())
	mounted.On("Stat", "sub/file.txt").Return(stitchfs.Info{Name: "file.txt", Size: 3, Type: stitchfs.TypeFile}, nil).Once()
	mounted.On("SetStat", "sub/file.txt", stitchfs.Info{}).Return(nil).Once()
	mounted.On("Size", "sub/file.txt").Return(uint64(3), nil).Once()
	mounted.On("SysPath", "sub/file.txt").Return("/srv/data/sub/file.txt", nil).Once()
	mounted.On("Type", "sub/file.txt").Return(stitchfs.TypeFile, nil).Once()
	mounted.On("URL", "sub/file.txt").Return("file:///srv/data/sub/file.txt", nil).Once()
	mounted.On("HasURL", "sub/file.txt").Return(true, nil).Once()
	mounted.On("IsDir", "sub/file.txt").Return(false, nil).Once()
	mounted.On("IsFile", "sub/file.txt").Return(true, nil).Once()
	mounted.On("ValidatePath", "sub/file.txt").Return(nil).Once()
	mounted.On("ReadBytes", "sub/file.txt").Return([]byte("abc"), nil).Once()
	mounted.On("WriteBytes", "sub/file.txt", []byte("abc")).Return(nil).Once()
	mounted.On("ReadText", "sub/file.txt").Return("abc", nil).Once()
	mounted.On("WriteText", "sub/file.txt", "abc").Return(nil).Once()
	mounted.On("Mkdir", "sub/new").Return(nil).Once()
	mounted.On("MkdirAll", "sub/new", true).Return(nil).Once()
	mounted.On("Remove", "sub/file.txt").Return(nil).Once()
	mounted.On("RemoveDir", "sub/new").Return(nil).Once()
	mounted.On("Scan", "sub").Return([]stitchfs.Info{}, nil).Once()

	m := mountfs.New(mountfs.WithAutoClose(false))
	s.NoError(m.Mount("/data", mounted))

	info, err := m.Stat("/data/sub/file.txt")
	s.NoError(err)
	s.Equal("file.txt", info.Name)
	s.NoError(m.SetStat("/data/sub/file.txt", stitchfs.Info{}))

	size, err := m.Size("/data/sub/file.txt")
	s.NoError(err)
	s.Equal(uint64(3), size)

	sysPath, err := m.SysPath("/data/sub/file.txt")
	s.NoError(err)
	s.Equal("/srv/data/sub/file.txt", sysPath)

	entryType, err := m.Type("/data/sub/file.txt")
	s.NoError(err)
	s.Equal(stitchfs.TypeFile, entryType)

	uri, err := m.URL("/data/sub/file.txt")
	s.NoError(err)
	s.Equal("file:///srv/data/sub/file.txt", uri)

	hasURL, err := m.HasURL("/data/sub/file.txt")
	s.NoError(err)
	s.True(hasURL)

	isDir, err := m.IsDir("/data/sub/file.txt")
	s.NoError(err)
	s.False(isDir)

	isFile, err := m.IsFile("/data/sub/file.txt")
	s.NoError(err)
	s.True(isFile)

	s.NoError(m.ValidatePath("/data/sub/file.txt"))

	data, err := m.ReadBytes("/data/sub/file.txt")
	s.NoError(err)
	s.Equal([]byte("abc"), data)
	s.NoError(m.WriteBytes("/data/sub/file.txt", []byte("abc")))

	text, err := m.ReadText("/data/sub/file.txt")
	s.NoError(err)
	s.Equal("abc", text)
	s.NoError(m.WriteText("/data/sub/file.txt", "abc"))

	s.NoError(m.Mkdir("/data/sub/new"))
	s.NoError(m.MkdirAll("/data/sub/new", true))
	s.NoError(m.Remove("/data/sub/file.txt"))
	s.NoError(m.RemoveDir("/data/sub/new"))

	infos, err := m.Scan("/data/sub")
	s.NoError(err)
	s.Empty(infos)
}

func (s *mountFSSuite) TestMountConflicts() {
	tests := []struct {
		first   string
		second  string
		message string
	}{
		{
			first:   "/data",
			second:  "/data/cache",
			message: "new mount nested under an existing one",
		},
		{
			first:   "/data/cache",
			second:  "/data",
			message: "new mount above an existing one",
		},
		{
			first:   "/data",
			second:  "/data",
			message: "same path twice",
		},
		{
			first:   "/data",
			second:  "data/",
			message: "same path in a different spelling",
		},
	}

	for _, test := range tests {
		s.Run(test.message, func() {
			m := mountfs.New(mountfs.WithAutoClose(false))
			s.NoError(m.Mount(test.first, mocks.NewFileSystem(s.T())))

			err := m.Mount(test.second, mocks.NewFileSystem(s.T()))
			s.ErrorIs(err, stitchfs.ErrMountConflict, test.message)
			s.Equal([]string{"/" + trimSlashes(test.first) + "/"}, m.Mounts(), test.message)
		})
	}
}

func (s *mountFSSuite) TestSiblingMountsDoNotConflict() {
	// "/data" and "/database" share a string prefix but not a path prefix
	m := mountfs.New(mountfs.WithAutoClose(false))
	s.NoError(m.Mount("/data", mocks.NewFileSystem(s.T())))
	s.NoError(m.Mount("/database", mocks.NewFileSystem(s.T())))
	s.NoError(m.Mount("/data2", mocks.NewFileSystem(s.T())))
	s.Equal([]string{"/data/", "/database/", "/data2/"}, m.Mounts())
}

func (s *mountFSSuite) TestMountSelf() {
	m := mountfs.New()
	s.ErrorIs(m.Mount("/loop", m), stitchfs.ErrSelfMount)
	s.Empty(m.Mounts())
}

func (s *mountFSSuite) TestMountOfAnotherMountFS() {
	// nesting a different namespace as a backend is allowed
	inner := mountfs.New()
	s.NoError(inner.WriteText("/greeting.txt", "hi"))

	outer := mountfs.New()
	s.NoError(outer.Mount("/nested", inner))

	text, err := outer.ReadText("/nested/greeting.txt")
	s.NoError(err)
	s.Equal("hi", text)
}

func (s *mountFSSuite) TestMountPointMaterialized() {
	// a successful mount shows up as a directory in the default namespace
	m := mountfs.New(mountfs.WithAutoClose(false))
	s.NoError(m.Mount("/srv/data", mocks.NewFileSystem(s.T())))

	names, err := m.List("/srv")
	s.NoError(err)
	s.Equal([]string{"data"}, names)

	isDir, err := m.IsDir("/srv/data/..")
	s.NoError(err)
	s.True(isDir)
}

func (s *mountFSSuite) TestRemoveRoot() {
	// the namespace root may never be removed, and no backend is consulted
	def := mocks.NewFileSystem(s.T())
	m := mountfs.New(mountfs.WithDefaultFileSystem(def))

	s.ErrorIs(m.RemoveDir("/"), stitchfs.ErrRemoveRoot)
	s.ErrorIs(m.RemoveDir(""), stitchfs.ErrRemoveRoot)
	s.ErrorIs(m.RemoveDir("/data/.."), stitchfs.ErrRemoveRoot)
}

func (s *mountFSSuite) TestDescribe() {
	mounted := mem.NewFileSystem()
	s.NoError(mounted.MkdirAll("/reports", true))
	s.NoError(mounted.WriteText("/reports/q3.csv", "a,b"))

	m := mountfs.New()
	s.NoError(m.Mount("/data", mounted))
	s.NoError(m.WriteText("/local.txt", "x"))

	desc, err := m.Describe("/data/reports/q3.csv")
	s.NoError(err)
	s.Equal("reports/q3.csv on In-Memory Filesystem", desc)

	desc, err = m.Describe("/local.txt")
	s.NoError(err)
	s.Equal("/local.txt on In-Memory Filesystem", desc)

	_, err = m.Describe("/data/missing.txt")
	s.ErrorIs(err, stitchfs.ErrNotExist)
}

func (s *mountFSSuite) TestCloseCascades() {
	mounted := mocks.NewFileSystem(s.T())
	mounted.On("Close").Return(nil).Once()

	m := mountfs.New()
	s.NoError(m.Mount("/data", mounted))

	s.NoError(m.Close())
	s.Empty(m.Mounts(), "close empties the mount table")

	// every operation now fails with ErrClosed
	_, err := m.Exists("/data/file.txt")
	s.ErrorIs(err, stitchfs.ErrClosed)
	_, err = m.List("/")
	s.ErrorIs(err, stitchfs.ErrClosed)
	s.ErrorIs(m.WriteText("/x", "y"), stitchfs.ErrClosed)
	s.ErrorIs(m.Mount("/more", mocks.NewFileSystem(s.T())), stitchfs.ErrClosed)

	// the closed check wins over the root-removal guard
	s.ErrorIs(m.RemoveDir("/"), stitchfs.ErrClosed)
	s.ErrorIs(m.RemoveDir(""), stitchfs.ErrClosed)

	// second close is a no-op; the mock enforces that Close ran exactly once
	s.NoError(m.Close())
}

func (s *mountFSSuite) TestCloseWithoutAutoClose() {
	// mounted backends are owned elsewhere and must stay open
	mounted := mocks.NewFileSystem(s.T())

	m := mountfs.New(mountfs.WithAutoClose(false))
	s.NoError(m.Mount("/data", mounted))
	s.NoError(m.Close())

	_, err := m.Exists("/data/file.txt")
	s.ErrorIs(err, stitchfs.ErrClosed)
}

func (s *mountFSSuite) TestCloseAggregatesErrors() {
	failing := mocks.NewFileSystem(s.T())
	failing.On("Close").Return(errors.New("connection reset")).Once()
	fine := mocks.NewFileSystem(s.T())
	fine.On("Close").Return(nil).Once()

	m := mountfs.New()
	s.NoError(m.Mount("/bad", failing))
	s.NoError(m.Mount("/good", fine))

	err := m.Close()
	s.Error(err)
	s.Contains(err.Error(), "connection reset")

	// the namespace is closed despite the failure, and stays closed
	_, err = m.Exists("/good/file.txt")
	s.ErrorIs(err, stitchfs.ErrClosed)
	s.NoError(m.Close())
}

func (s *mountFSSuite) TestEndToEnd() {
	// a composed namespace behaving like one filesystem
	docs := mem.NewFileSystem()
	m := mountfs.New()
	s.NoError(m.Mount("/docs", docs))

	s.NoError(m.MkdirAll("/docs/guides", true))
	s.NoError(m.WriteText("/docs/guides/intro.md", "# Intro"))
	s.NoError(m.WriteText("/scratch.txt", "tmp"))

	// the mounted write landed in the backend under the relative path
	text, err := docs.ReadText("/guides/intro.md")
	s.NoError(err)
	s.Equal("# Intro", text)

	// and the default write never touched the mounted backend
	found, err := docs.Exists("/scratch.txt")
	s.NoError(err)
	s.False(found)

	names, err := m.List("/docs/guides")
	s.NoError(err)
	s.Equal([]string{"intro.md"}, names)

	size, err := m.Size("/docs/guides/intro.md")
	s.NoError(err)
	s.Equal(uint64(len("# Intro")), size)

	f, err := m.Open("/docs/guides/intro.md", "a")
	s.NoError(err)
	_, err = f.Write([]byte("\nmore"))
	s.NoError(err)
	s.NoError(f.Close())

	text, err = m.ReadText("/docs/guides/intro.md")
	s.NoError(err)
	s.Equal("# Intro\nmore", text)

	s.NoError(m.Close())
}

// trimSlashes strips leading and trailing separators for expected-mount-path construction.
func trimSlashes(p string) string {
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}

func TestMountFS(t *testing.T) {
	suite.Run(t, new(mountFSSuite))
}
