package s3

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	_s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/stitchfs/stitchfs"
)

/**********************************
 ************TESTS*****************
 **********************************/

var errNotFound = &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}

type s3FileSystemSuite struct {
	suite.Suite
	client *mockClient
	fs     *FileSystem
}

func (s *s3FileSystemSuite) SetupTest() {
	s.client = newMockClient(s.T())
	s.fs = NewFileSystem("bkt").WithClient(s.client)
}

func (s *s3FileSystemSuite) TestSchemeAndName() {
	s.Equal("s3", s.fs.Scheme())
	s.Equal("AWS S3", s.fs.Name())
}

func (s *s3FileSystemSuite) TestExists() {
	s.client.On("HeadObject", mock.Anything, headInput("file.txt")).
		Return(&_s3.HeadObjectOutput{}, nil).Once()
	found, err := s.fs.Exists("/file.txt")
	s.NoError(err)
	s.True(found)

	// neither an object nor a prefix
	s.client.On("HeadObject", mock.Anything, headInput("missing.txt")).
		Return(nil, errNotFound).Once()
	s.client.On("ListObjectsV2", mock.Anything, listInput("missing.txt/")).
		Return(&_s3.ListObjectsV2Output{KeyCount: aws.Int32(0)}, nil).Once()
	found, err = s.fs.Exists("/missing.txt")
	s.NoError(err)
	s.False(found)

	// the bucket root always exists, no round trip needed
	found, err = s.fs.Exists("/")
	s.NoError(err)
	s.True(found)
}

func (s *s3FileSystemSuite) TestPrefixScoping() {
	scoped := s.fs.WithOptions(Options{Prefix: "releases/v2"}).WithClient(s.client)

	s.client.On("HeadObject", mock.Anything, headInput("releases/v2/file.txt")).
		Return(&_s3.HeadObjectOutput{}, nil).Once()
	found, err := scoped.Exists("/file.txt")
	s.NoError(err)
	s.True(found)
}

func (s *s3FileSystemSuite) TestStat() {
	modTime := time.Date(2024, 7, 8, 9, 10, 11, 0, time.UTC)
	s.client.On("HeadObject", mock.Anything, headInput("file.txt")).
		Return(&_s3.HeadObjectOutput{ContentLength: aws.Int64(42), LastModified: &modTime}, nil).Once()

	info, err := s.fs.Stat("/file.txt")
	s.NoError(err)
	s.Equal("file.txt", info.Name)
	s.Equal(int64(42), info.Size)
	s.True(info.ModTime.Equal(modTime))
	s.Equal(stitchfs.TypeFile, info.Type)
}

func (s *s3FileSystemSuite) TestStatDirectory() {
	// no object, but a directory marker
	s.client.On("HeadObject", mock.Anything, headInput("docs")).
		Return(nil, errNotFound).Once()
	s.client.On("HeadObject", mock.Anything, headInput("docs/")).
		Return(&_s3.HeadObjectOutput{}, nil).Once()

	info, err := s.fs.Stat("/docs")
	s.NoError(err)
	s.Equal("docs", info.Name)
	s.Equal(stitchfs.TypeDirectory, info.Type)
	s.True(info.IsDir())

	// no object, no marker, but keys beneath the prefix
	s.client.On("HeadObject", mock.Anything, headInput("logs")).
		Return(nil, errNotFound).Once()
	s.client.On("HeadObject", mock.Anything, headInput("logs/")).
		Return(nil, errNotFound).Once()
	s.client.On("ListObjectsV2", mock.Anything, listInput("logs/")).
		Return(&_s3.ListObjectsV2Output{KeyCount: aws.Int32(1)}, nil).Once()

	info, err = s.fs.Stat("/logs")
	s.NoError(err)
	s.Equal(stitchfs.TypeDirectory, info.Type)
}

func (s *s3FileSystemSuite) TestStatMissing() {
	s.client.On("HeadObject", mock.Anything, headInput("nope")).
		Return(nil, errNotFound).Once()
	s.client.On("HeadObject", mock.Anything, headInput("nope/")).
		Return(nil, errNotFound).Once()
	s.client.On("ListObjectsV2", mock.Anything, listInput("nope/")).
		Return(&_s3.ListObjectsV2Output{KeyCount: aws.Int32(0)}, nil).Once()

	_, err := s.fs.Stat("/nope")
	s.ErrorIs(err, stitchfs.ErrNotExist)
}

func (s *s3FileSystemSuite) TestSetStat() {
	s.ErrorIs(s.fs.SetStat("/any", stitchfs.Info{}), stitchfs.ErrNotSupported)
}

func (s *s3FileSystemSuite) TestListAndScan() {
	out := &_s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("docs/"), Size: aws.Int64(0)},
			{Key: aws.String("docs/a.txt"), Size: aws.Int64(1)},
			{Key: aws.String("docs/b.txt"), Size: aws.Int64(2)},
		},
		CommonPrefixes: []types.CommonPrefix{
			{Prefix: aws.String("docs/sub/")},
		},
		IsTruncated: aws.Bool(false),
	}
	s.client.On("ListObjectsV2", mock.Anything, listInput("docs/")).Return(out, nil).Twice()

	names, err := s.fs.List("/docs")
	s.NoError(err)
	s.Equal([]string{"a.txt", "b.txt", "sub"}, names, "marker object excluded, prefixes become dirs")

	infos, err := s.fs.Scan("/docs")
	s.NoError(err)
	s.Len(infos, 3)
	s.Equal(stitchfs.TypeFile, infos[0].Type)
	s.Equal(int64(1), infos[0].Size)
	s.Equal(stitchfs.TypeDirectory, infos[2].Type)
	s.Equal("sub", infos[2].Name)
}

func (s *s3FileSystemSuite) TestScanPaginates() {
	first := &_s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("docs/a.txt"), Size: aws.Int64(1)}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
	}
	second := &_s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("docs/b.txt"), Size: aws.Int64(2)}},
		IsTruncated: aws.Bool(false),
	}
	s.client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *_s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(first, nil).Once()
	s.client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *_s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "token"
	})).Return(second, nil).Once()

	names, err := s.fs.List("/docs")
	s.NoError(err)
	s.Equal([]string{"a.txt", "b.txt"}, names)
}

func (s *s3FileSystemSuite) TestMkdir() {
	s.client.On("PutObject", mock.Anything, putInput("new/")).
		Return(&_s3.PutObjectOutput{}, nil).Once()
	s.NoError(s.fs.Mkdir("/new"))
}

func (s *s3FileSystemSuite) TestMkdirAll() {
	s.client.On("HeadObject", mock.Anything, headInput("a/b/")).
		Return(nil, errNotFound).Once()
	s.client.On("PutObject", mock.Anything, putInput("a/")).
		Return(&_s3.PutObjectOutput{}, nil).Once()
	s.client.On("PutObject", mock.Anything, putInput("a/b/")).
		Return(&_s3.PutObjectOutput{}, nil).Once()
	s.NoError(s.fs.MkdirAll("/a/b", false))

	// recreate off and the marker already exists
	s.client.On("HeadObject", mock.Anything, headInput("a/b/")).
		Return(&_s3.HeadObjectOutput{}, nil).Once()
	s.ErrorIs(s.fs.MkdirAll("/a/b", false), stitchfs.ErrExists)
}

func (s *s3FileSystemSuite) TestRemove() {
	s.client.On("HeadObject", mock.Anything, headInput("doomed.txt")).
		Return(&_s3.HeadObjectOutput{}, nil).Once()
	s.client.On("DeleteObject", mock.Anything, deleteInput("doomed.txt")).
		Return(&_s3.DeleteObjectOutput{}, nil).Once()
	s.NoError(s.fs.Remove("/doomed.txt"))

	// s3 deletes are idempotent, so the miss is surfaced before deleting
	s.client.On("HeadObject", mock.Anything, headInput("missing.txt")).
		Return(nil, errNotFound).Once()
	s.ErrorIs(s.fs.Remove("/missing.txt"), stitchfs.ErrNotExist)
}

func (s *s3FileSystemSuite) TestRemoveDir() {
	s.ErrorIs(s.fs.RemoveDir("/"), stitchfs.ErrRemoveRoot)

	// only the marker object exists, so the directory is empty
	s.client.On("ListObjectsV2", mock.Anything, listInput("empty/")).
		Return(&_s3.ListObjectsV2Output{Contents: []types.Object{{Key: aws.String("empty/")}}}, nil).Once()
	s.client.On("DeleteObject", mock.Anything, deleteInput("empty/")).
		Return(&_s3.DeleteObjectOutput{}, nil).Once()
	s.NoError(s.fs.RemoveDir("/empty"))

	s.client.On("ListObjectsV2", mock.Anything, listInput("full/")).
		Return(&_s3.ListObjectsV2Output{Contents: []types.Object{
			{Key: aws.String("full/")},
			{Key: aws.String("full/file.txt")},
		}}, nil).Once()
	s.ErrorIs(s.fs.RemoveDir("/full"), stitchfs.ErrDirNotEmpty)
}

func (s *s3FileSystemSuite) TestSize() {
	s.client.On("HeadObject", mock.Anything, headInput("file.txt")).
		Return(&_s3.HeadObjectOutput{ContentLength: aws.Int64(42)}, nil).Once()
	size, err := s.fs.Size("/file.txt")
	s.NoError(err)
	s.Equal(uint64(42), size)
}

func (s *s3FileSystemSuite) TestSysPathAndURL() {
	_, err := s.fs.SysPath("/anything")
	s.ErrorIs(err, stitchfs.ErrNoSysPath)

	uri, err := s.fs.URL("/docs/file.txt")
	s.NoError(err)
	s.Equal("s3://bkt/docs/file.txt", uri)

	hasURL, err := s.fs.HasURL("/docs/file.txt")
	s.NoError(err)
	s.True(hasURL)
}

func (s *s3FileSystemSuite) TestReadBytes() {
	payload := []byte("object contents")
	s.client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *_s3.GetObjectInput) bool {
		return aws.ToString(in.Bucket) == "bkt" && aws.ToString(in.Key) == "file.txt"
	})).Return(&_s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(payload)),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentRange:  aws.String("bytes 0-14/15"),
	}, nil).Once()

	data, err := s.fs.ReadBytes("/file.txt")
	s.NoError(err)
	s.Equal(payload, data)
}

func (s *s3FileSystemSuite) TestWriteBytes() {
	var uploaded []byte
	s.client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *_s3.PutObjectInput) bool {
		if aws.ToString(in.Key) != "f.txt" {
			return false
		}
		data, err := io.ReadAll(in.Body)
		if err != nil {
			return false
		}
		uploaded = data
		return true
	})).Return(&_s3.PutObjectOutput{}, nil).Once()

	s.NoError(s.fs.WriteBytes("/f.txt", []byte("payload")))
	s.Equal([]byte("payload"), uploaded)
}

func (s *s3FileSystemSuite) TestOpenWriteUploadsOnClose() {
	// "w" truncates, so nothing is downloaded up front
	f, err := s.fs.Open("/staged.txt", "w")
	s.NoError(err)
	s.Equal("staged.txt", f.Name())

	_, err = f.Write([]byte("hello"))
	s.NoError(err)

	s.client.On("PutObject", mock.Anything, putInput("staged.txt")).
		Return(&_s3.PutObjectOutput{}, nil).Once()
	s.NoError(f.Close())

	// a second close does not re-upload
	s.NoError(f.Close())
}

func (s *s3FileSystemSuite) TestValidatePath() {
	s.NoError(s.fs.ValidatePath("/fine.txt"))
	s.Error(s.fs.ValidatePath("/bad\x00path"))
}

func (s *s3FileSystemSuite) TestClose() {
	s.NoError(s.fs.Close(), "close is a no-op")
}

func TestS3FileSystem(t *testing.T) {
	suite.Run(t, new(s3FileSystemSuite))
}

/**********************************
 ************MOCKS*****************
 **********************************/

func headInput(key string) any {
	return mock.MatchedBy(func(in *_s3.HeadObjectInput) bool {
		return aws.ToString(in.Bucket) == "bkt" && aws.ToString(in.Key) == key
	})
}

func listInput(prefix string) any {
	return mock.MatchedBy(func(in *_s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Bucket) == "bkt" && aws.ToString(in.Prefix) == prefix
	})
}

func putInput(key string) any {
	return mock.MatchedBy(func(in *_s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "bkt" && aws.ToString(in.Key) == key
	})
}

func deleteInput(key string) any {
	return mock.MatchedBy(func(in *_s3.DeleteObjectInput) bool {
		return aws.ToString(in.Bucket) == "bkt" && aws.ToString(in.Key) == key
	})
}

type mockClient struct {
	mock.Mock
}

func newMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockClient {
	m := &mockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockClient) GetObject(ctx context.Context, in *_s3.GetObjectInput, opts ...func(*_s3.Options)) (*_s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.GetObjectOutput), args.Error(1)
}

func (m *mockClient) PutObject(ctx context.Context, in *_s3.PutObjectInput, opts ...func(*_s3.Options)) (*_s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.PutObjectOutput), args.Error(1)
}

func (m *mockClient) UploadPart(ctx context.Context, in *_s3.UploadPartInput, opts ...func(*_s3.Options)) (*_s3.UploadPartOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.UploadPartOutput), args.Error(1)
}

func (m *mockClient) CreateMultipartUpload(ctx context.Context, in *_s3.CreateMultipartUploadInput, opts ...func(*_s3.Options)) (*_s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.CreateMultipartUploadOutput), args.Error(1)
}

func (m *mockClient) CompleteMultipartUpload(ctx context.Context, in *_s3.CompleteMultipartUploadInput, opts ...func(*_s3.Options)) (*_s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.CompleteMultipartUploadOutput), args.Error(1)
}

func (m *mockClient) AbortMultipartUpload(ctx context.Context, in *_s3.AbortMultipartUploadInput, opts ...func(*_s3.Options)) (*_s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.AbortMultipartUploadOutput), args.Error(1)
}

func (m *mockClient) DeleteObject(ctx context.Context, in *_s3.DeleteObjectInput, opts ...func(*_s3.Options)) (*_s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.DeleteObjectOutput), args.Error(1)
}

func (m *mockClient) HeadObject(ctx context.Context, in *_s3.HeadObjectInput, opts ...func(*_s3.Options)) (*_s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.HeadObjectOutput), args.Error(1)
}

func (m *mockClient) ListObjectsV2(ctx context.Context, in *_s3.ListObjectsV2Input, opts ...func(*_s3.Options)) (*_s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*_s3.ListObjectsV2Output), args.Error(1)
}
