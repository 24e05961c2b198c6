// Command vsfsutil creates, inspects, and interactively drives VSFS images
// from the shell.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/onelevelvsfs/vsfs"
	"github.com/onelevelvsfs/vsfs/disks"
)

func main() {
	app := &cli.App{
		Name:  "vsfsutil",
		Usage: "Create, check, and interactively drive single-file VSFS images",
		Commands: []*cli.Command{
			formatCommand,
			fsckCommand,
			shellCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("vsfsutil: %s", err.Error())
	}
}

var formatCommand = &cli.Command{
	Name:      "format",
	Usage:     "Create or wipe an image file",
	ArgsUsage: "IMAGE_PATH (SIZE_BYTES | PRESET_SLUG)",
	Action:    runFormat,
}

func runFormat(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.Exit(fmt.Sprintf("usage: vsfsutil format %s", formatCommand.ArgsUsage), 1)
	}

	path := ctx.Args().Get(0)
	sizeArg := ctx.Args().Get(1)

	size, err := strconv.ParseInt(sizeArg, 10, 64)
	if err != nil {
		preset, presetErr := disks.GetPreset(sizeArg)
		if presetErr != nil {
			return cli.Exit(fmt.Sprintf(
				"%q is neither a byte count nor one of the known presets (%v)",
				sizeArg, disks.PresetSlugs()), 1)
		}
		size = preset.ImageSizeByte
	}

	session, err := vsfs.FormatFile(path, size)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer session.Unmount()

	sb := session.Superblock()
	fmt.Printf("formatted %s: %d blocks of %d bytes, %d file slots\n", path, sb.NBlocks, sb.BlockSize, sb.MaxFiles)
	return nil
}

var fsckCommand = &cli.Command{
	Name:      "fsck",
	Usage:     "Check an image's structural consistency",
	ArgsUsage: "IMAGE_PATH",
	Action:    runFsck,
}

func runFsck(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.Exit("usage: vsfsutil fsck IMAGE_PATH", 1)
	}

	session, err := vsfs.MountFile(ctx.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer session.Unmount()

	if err := session.Fsck(); err != nil {
		fmt.Println("inconsistencies found:")
		fmt.Println(err.Error())
		return cli.Exit("", 1)
	}

	fmt.Println("image is consistent")
	return nil
}

var shellCommand = &cli.Command{
	Name:      "shell",
	Usage:     "Open an interactive session against an image",
	ArgsUsage: "[IMAGE_PATH]",
	Action:    runShell,
}

func runShell(ctx *cli.Context) error {
	sh := newShell()
	if ctx.NArg() == 1 {
		if err := sh.mount(ctx.Args().Get(0)); err != nil {
			fmt.Println("Error:", err.Error())
		}
	}
	sh.run(os.Stdin, os.Stdout)
	return nil
}
