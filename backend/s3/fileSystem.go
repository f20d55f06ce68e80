package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	_s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/backend"
	"github.com/stitchfs/stitchfs/utils"
)

// Scheme defines the filesystem type.
const Scheme = "s3"

const name = "AWS S3"

// FileSystem implements stitchfs.FileSystem over an S3 bucket. Objects are keyed beneath
// Options.Prefix; directories exist as zero-byte "dir/" marker objects plus whatever common
// prefixes listing reveals, which keeps empty directories representable.
//
// S3 objects do not support partial rewrites, so files are staged in memory: reads download
// the object on open, writes buffer and upload on close.
type FileSystem struct {
	bucket  string
	options Options
	client  Client
}

// NewFileSystem returns a FileSystem over the given bucket.
func NewFileSystem(bucket string) *FileSystem {
	return &FileSystem{bucket: bucket}
}

// WithOptions sets options for client and returns the filesystem (chainable)
func (fs *FileSystem) WithOptions(opts Options) *FileSystem {
	fs.options = opts
	// we set client to nil to ensure that a new client is created using the new options when Client() is called
	fs.client = nil
	return fs
}

// WithClient sets the client to be used directly, bypassing config resolution, and returns
// the filesystem (chainable)
func (fs *FileSystem) WithClient(client Client) *FileSystem {
	fs.client = client
	return fs
}

// Client returns the underlying aws s3 client, creating it, if necessary
func (fs *FileSystem) Client() (Client, error) {
	if fs.client == nil {
		client, err := getClient(fs.options)
		if err != nil {
			return nil, fmt.Errorf("unable to create s3 client: %w", err)
		}
		fs.client = client
	}
	return fs.client, nil
}

// Name returns "AWS S3"
func (fs *FileSystem) Name() string {
	return name
}

// Scheme returns "s3" as the initial part of a file URI ie: s3://
func (fs *FileSystem) Scheme() string {
	return Scheme
}

// Close is a no-op; the s3 client holds no connection state.
func (fs *FileSystem) Close() error {
	return nil
}

// Exists returns whether an entry exists at the path, as either an object or a prefix.
func (fs *FileSystem) Exists(name string) (bool, error) {
	if utils.NormalizePath(name) == "/" {
		return true, nil
	}
	if _, err := fs.head(name); err == nil {
		return true, nil
	} else if !isNotFound(err) {
		return false, err
	}
	return fs.prefixExists(name)
}

// Stat returns the Info of the entry at the path.
func (fs *FileSystem) Stat(name string) (stitchfs.Info, error) {
	base := path.Base(utils.NormalizePath(name))
	if utils.NormalizePath(name) == "/" {
		return stitchfs.Info{Name: "/", Type: stitchfs.TypeDirectory}, nil
	}

	head, err := fs.head(name)
	if err == nil {
		if strings.HasSuffix(fs.objectKey(name), "/") {
			return stitchfs.Info{Name: base, Type: stitchfs.TypeDirectory}, nil
		}
		info := stitchfs.Info{Name: base, Size: aws.ToInt64(head.ContentLength), Type: stitchfs.TypeFile}
		if head.LastModified != nil {
			info.ModTime = *head.LastModified
		}
		return info, nil
	}
	if !isNotFound(err) {
		return stitchfs.Info{}, err
	}

	// fall back to a directory marker, then to a bare prefix
	if _, dirErr := fs.headDir(name); dirErr == nil {
		return stitchfs.Info{Name: base, Type: stitchfs.TypeDirectory}, nil
	} else if !isNotFound(dirErr) {
		return stitchfs.Info{}, dirErr
	}
	found, err := fs.prefixExists(name)
	if err != nil {
		return stitchfs.Info{}, err
	}
	if found {
		return stitchfs.Info{Name: base, Type: stitchfs.TypeDirectory}, nil
	}
	return stitchfs.Info{}, fmt.Errorf("%s: %w", name, stitchfs.ErrNotExist)
}

// SetStat always fails; object metadata cannot be updated in place.
func (fs *FileSystem) SetStat(name string, info stitchfs.Info) error {
	return fmt.Errorf("setstat %s: %w", name, stitchfs.ErrNotSupported)
}

// List returns the base names of the entries under the prefix.
func (fs *FileSystem) List(name string) ([]string, error) {
	infos, err := fs.Scan(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names, nil
}

// Scan returns the Infos of the entries under the prefix. Objects become files and common
// prefixes become directories.
func (fs *FileSystem) Scan(name string) ([]stitchfs.Info, error) {
	client, err := fs.Client()
	if err != nil {
		return nil, err
	}

	dirKey := fs.dirKey(name)
	infos := make([]stitchfs.Info, 0)
	var continuation *string
	for {
		out, err := client.ListObjectsV2(context.Background(), &_s3.ListObjectsV2Input{
			Bucket:            aws.String(fs.bucket),
			Prefix:            aws.String(dirKey),
			Delimiter:         aws.String("/"),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == dirKey {
				// the directory's own marker object
				continue
			}
			info := stitchfs.Info{
				Name: path.Base(key),
				Size: aws.ToInt64(obj.Size),
				Type: stitchfs.TypeFile,
			}
			if obj.LastModified != nil {
				info.ModTime = *obj.LastModified
			}
			infos = append(infos, info)
		}
		for _, prefix := range out.CommonPrefixes {
			infos = append(infos, stitchfs.Info{
				Name: path.Base(strings.TrimSuffix(aws.ToString(prefix.Prefix), "/")),
				Type: stitchfs.TypeDirectory,
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}
	return infos, nil
}

// Mkdir creates a directory marker object.
func (fs *FileSystem) Mkdir(name string) error {
	return fs.putDirMarker(name)
}

// MkdirAll creates a directory marker along with markers for any missing parents. With
// recreate set, an already-existing directory is not an error.
func (fs *FileSystem) MkdirAll(name string, recreate bool) error {
	if !recreate {
		if _, err := fs.headDir(name); err == nil {
			return fmt.Errorf("mkdir %s: %w", name, stitchfs.ErrExists)
		} else if !isNotFound(err) {
			return err
		}
	}

	p := utils.NormalizePath(name)
	if p == "/" {
		return nil
	}
	segments := strings.Split(strings.Trim(p, "/"), "/")
	current := ""
	for _, segment := range segments {
		current = current + "/" + segment
		if err := fs.putDirMarker(current); err != nil {
			return err
		}
	}
	return nil
}

// Open opens an object with the given mode. Reads download the object up front; writes are
// buffered in memory and uploaded when the file is closed.
func (fs *FileSystem) Open(name, mode string) (stitchfs.File, error) {
	if _, err := utils.OpenFlag(mode); err != nil {
		return nil, err
	}

	var data []byte
	if !utils.ModeTruncates(mode) {
		existing, err := fs.ReadBytes(name)
		switch {
		case err == nil:
			data = existing
		case isNotFound(err) && utils.ModeCreates(mode):
			// writable modes start from an empty object
		default:
			return nil, err
		}
	}

	f := &File{
		fileSystem: fs,
		key:        fs.objectKey(name),
		name:       path.Base(utils.NormalizePath(name)),
		mode:       mode,
		data:       data,
	}
	if utils.ModeAppends(mode) {
		f.cursor = int64(len(data))
	}
	return f, nil
}

// OpenText opens a file in text mode, which on s3 is identical to Open.
func (fs *FileSystem) OpenText(name, mode string) (stitchfs.File, error) {
	return fs.Open(name, mode)
}

// Remove deletes the object at the path.
func (fs *FileSystem) Remove(name string) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	// deleting a nonexistent key succeeds in S3, so surface the miss ourselves
	if _, err := fs.head(name); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("remove %s: %w", name, stitchfs.ErrNotExist)
		}
		return err
	}
	_, err = client.DeleteObject(context.Background(), &_s3.DeleteObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.objectKey(name)),
	})
	return err
}

// RemoveDir deletes the empty directory at the path. The backend root may not be removed.
func (fs *FileSystem) RemoveDir(name string) error {
	if utils.NormalizePath(name) == "/" {
		return stitchfs.ErrRemoveRoot
	}
	client, err := fs.Client()
	if err != nil {
		return err
	}

	dirKey := fs.dirKey(name)
	out, err := client.ListObjectsV2(context.Background(), &_s3.ListObjectsV2Input{
		Bucket:  aws.String(fs.bucket),
		Prefix:  aws.String(dirKey),
		MaxKeys: aws.Int32(2),
	})
	if err != nil {
		return err
	}
	for _, obj := range out.Contents {
		if aws.ToString(obj.Key) != dirKey {
			return fmt.Errorf("removedir %s: %w", name, stitchfs.ErrDirNotEmpty)
		}
	}

	_, err = client.DeleteObject(context.Background(), &_s3.DeleteObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(dirKey),
	})
	return err
}

// Size returns the size in bytes of the object at the path.
func (fs *FileSystem) Size(name string) (uint64, error) {
	head, err := fs.head(name)
	if err != nil {
		return 0, err
	}
	return uint64(aws.ToInt64(head.ContentLength)), nil
}

// SysPath always fails; objects have no host-system path.
func (fs *FileSystem) SysPath(name string) (string, error) {
	return "", stitchfs.ErrNoSysPath
}

// Type returns the EntryType of the entry at the path.
func (fs *FileSystem) Type(name string) (stitchfs.EntryType, error) {
	info, err := fs.Stat(name)
	if err != nil {
		return stitchfs.TypeUnknown, err
	}
	return info.Type, nil
}

// URL returns the s3:// URI of the entry, ie s3://bucket/path/to/file.txt.
func (fs *FileSystem) URL(name string) (string, error) {
	return fmt.Sprintf("%s://%s/%s", Scheme, fs.bucket, fs.objectKey(name)), nil
}

// HasURL returns true; every object has an s3:// URI.
func (fs *FileSystem) HasURL(name string) (bool, error) {
	return true, nil
}

// IsDir returns true if the path exists as a directory marker or prefix.
func (fs *FileSystem) IsDir(name string) (bool, error) {
	if utils.NormalizePath(name) == "/" {
		return true, nil
	}
	if _, err := fs.headDir(name); err == nil {
		return true, nil
	} else if !isNotFound(err) {
		return false, err
	}
	return fs.prefixExists(name)
}

// IsFile returns true if the path exists as an object.
func (fs *FileSystem) IsFile(name string) (bool, error) {
	if _, err := fs.head(name); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ValidatePath returns an error when the path is empty or contains a NUL byte.
func (fs *FileSystem) ValidatePath(name string) error {
	return utils.ValidatePath(utils.EnsureLeadingSlash(name))
}

// ReadBytes downloads the full contents of the object at the path.
func (fs *FileSystem) ReadBytes(name string) ([]byte, error) {
	client, err := fs.Client()
	if err != nil {
		return nil, err
	}

	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		if fs.options.DownloadPartitionSize > 0 {
			d.PartSize = fs.options.DownloadPartitionSize
		}
	})
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err = downloader.Download(context.Background(), buf, &_s3.GetObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.objectKey(name)),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteBytes uploads the given contents as the object at the path.
func (fs *FileSystem) WriteBytes(name string, data []byte) error {
	return fs.upload(fs.objectKey(name), data)
}

// upload writes an object via manager.Uploader, honoring the configured partition size.
func (fs *FileSystem) upload(key string, data []byte) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if fs.options.UploadPartitionSize > 0 {
			u.PartSize = fs.options.UploadPartitionSize
		}
	})
	_, err = uploader.Upload(context.Background(), &_s3.PutObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

// ReadText returns the full contents of the object at the path as a string.
func (fs *FileSystem) ReadText(name string) (string, error) {
	data, err := fs.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText replaces the full contents of the object at the path with the given string.
func (fs *FileSystem) WriteText(name, text string) error {
	return fs.WriteBytes(name, []byte(text))
}

// head fetches object metadata for a file key.
func (fs *FileSystem) head(name string) (*_s3.HeadObjectOutput, error) {
	client, err := fs.Client()
	if err != nil {
		return nil, err
	}
	return client.HeadObject(context.Background(), &_s3.HeadObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.objectKey(name)),
	})
}

// headDir fetches object metadata for a directory marker key.
func (fs *FileSystem) headDir(name string) (*_s3.HeadObjectOutput, error) {
	client, err := fs.Client()
	if err != nil {
		return nil, err
	}
	return client.HeadObject(context.Background(), &_s3.HeadObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.dirKey(name)),
	})
}

// prefixExists reports whether any object exists beneath the path's directory key.
func (fs *FileSystem) prefixExists(name string) (bool, error) {
	client, err := fs.Client()
	if err != nil {
		return false, err
	}
	out, err := client.ListObjectsV2(context.Background(), &_s3.ListObjectsV2Input{
		Bucket:  aws.String(fs.bucket),
		Prefix:  aws.String(fs.dirKey(name)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return aws.ToInt32(out.KeyCount) > 0, nil
}

// putDirMarker writes the zero-byte marker object for a directory.
func (fs *FileSystem) putDirMarker(name string) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	_, err = client.PutObject(context.Background(), &_s3.PutObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.dirKey(name)),
		Body:   bytes.NewReader(nil),
	})
	return err
}

// objectKey maps a backend path onto a bucket key beneath Options.Prefix.
func (fs *FileSystem) objectKey(name string) string {
	p := utils.NormalizePath(name)
	if fs.options.Prefix != "" {
		p = path.Join(utils.NormalizePath(fs.options.Prefix), p)
	}
	return utils.RemoveLeadingSlash(p)
}

// dirKey is objectKey with the trailing separator directory markers use.
func (fs *FileSystem) dirKey(name string) string {
	key := fs.objectKey(name)
	if key == "" {
		return ""
	}
	return key + "/"
}

// isNotFound reports whether an s3 error means the object or prefix does not exist.
func isNotFound(err error) bool {
	if errors.Is(err, stitchfs.ErrNotExist) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func init() {
	backend.Register(Scheme, &FileSystem{})
}
