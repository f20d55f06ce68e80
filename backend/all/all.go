// Package all imports every bundled backend so each registers itself with the backend map.
package all

import (
	// register all bundled backends
	_ "github.com/stitchfs/stitchfs/backend/ftp"
	_ "github.com/stitchfs/stitchfs/backend/mem"
	_ "github.com/stitchfs/stitchfs/backend/os"
	_ "github.com/stitchfs/stitchfs/backend/s3"
	_ "github.com/stitchfs/stitchfs/backend/sftp"
)
