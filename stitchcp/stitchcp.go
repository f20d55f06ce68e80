package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/stitchfs/stitchfs/mountfs"
	"github.com/stitchfs/stitchfs/stitchsimple"
)

func main() {
	app := cli.NewApp()
	app.Name = "stitchcp"
	app.Usage = "Copies a file from one place to another within a namespace composed from --mount specs"
	app.UsageText = "stitchcp [--mount PREFIX=URI]... SRC DST"
	app.Flags = []cli.Flag{
		cli.StringSliceFlag{
			Name:  "mount, m",
			Usage: "mount spec PREFIX=URI, ie /data=file:///srv/data or /cache=mem:// (repeatable)",
		},
	}
	app.Action = func(c *cli.Context) error {
		src, dst := c.Args().Get(0), c.Args().Get(1)
		if err := checkArgs(src, dst); err != nil {
			return err
		}

		ns, err := buildNamespace(c.StringSlice("mount"))
		if err != nil {
			return err
		}
		defer func() { _ = ns.Close() }()

		fmt.Printf("Copying %s to %s\n", color.CyanString(src), color.CyanString(dst))
		if err := copyFile(ns, src, dst); err != nil {
			color.Red("copy failed: %v", err)
			return err
		}

		from, _ := ns.Describe(src)
		to, _ := ns.Describe(dst)
		color.Green("copied %s -> %s", from, to)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func checkArgs(src, dst string) error {
	if src == "" || dst == "" {
		return errors.New("stitchcp requires 2 non-empty arguments")
	}
	return nil
}

// buildNamespace assembles a MountFS from PREFIX=URI mount specs.
func buildNamespace(specs []string) (*mountfs.MountFS, error) {
	ns := mountfs.New()
	for _, spec := range specs {
		prefix, uri, found := strings.Cut(spec, "=")
		if !found || prefix == "" || uri == "" {
			return nil, fmt.Errorf("invalid mount spec %q: want PREFIX=URI", spec)
		}
		fs, err := stitchsimple.NewFileSystem(uri)
		if err != nil {
			return nil, err
		}
		if err := ns.Mount(prefix, fs); err != nil {
			return nil, fmt.Errorf("mount %q: %w", prefix, err)
		}
	}
	return ns, nil
}

func copyFile(ns *mountfs.MountFS, src, dst string) error {
	data, err := ns.ReadBytes(src)
	if err != nil {
		return err
	}
	if dir := path.Dir(dst); dir != "/" && dir != "." {
		if err := ns.MkdirAll(dir, true); err != nil {
			return err
		}
	}
	return ns.WriteBytes(dst, data)
}
