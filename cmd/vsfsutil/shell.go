package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/onelevelvsfs/vsfs"
)

// shell is an interactive REPL over a single *vsfs.Session, mirroring the
// command vocabulary of the original VSFS driver's shell: mkfs, mount,
// umount, filestat, ls, create, open, close, read, write, link, unlink,
// truncate, exit.
type shell struct {
	session *vsfs.Session
}

func newShell() *shell {
	return &shell{}
}

func (sh *shell) mount(path string) error {
	session, err := vsfs.MountFile(path)
	if err != nil {
		return err
	}
	sh.session = session
	return nil
}

func (sh *shell) run(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := fields[0], fields[1:]
		if cmd == "exit" {
			if sh.session != nil {
				sh.session.Unmount()
			}
			return
		}

		if sh.session == nil && cmd != "mkfs" && cmd != "mount" {
			fmt.Fprintln(out, "Error: no image is mounted")
			continue
		}

		if err := sh.dispatch(out, cmd, args); err != nil {
			fmt.Fprintln(out, "Error:", err.Error())
		}
	}
}

func (sh *shell) dispatch(out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "mkfs":
		return sh.cmdMkfs(out, args)
	case "mount":
		return sh.cmdMount(out, args)
	case "umount":
		return sh.cmdUmount(out)
	case "filestat":
		return sh.cmdFilestat(out, args)
	case "ls":
		return sh.cmdLs(out)
	case "create":
		return sh.cmdCreate(out, args)
	case "open":
		return sh.cmdOpen(out, args)
	case "close":
		return sh.cmdClose(out, args)
	case "read":
		return sh.cmdRead(out, args)
	case "write":
		return sh.cmdWrite(out, args)
	case "link":
		return sh.cmdLink(out, args)
	case "unlink":
		return sh.cmdUnlink(out, args)
	case "truncate":
		return sh.cmdTruncate(out, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (sh *shell) cmdMkfs(out io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: mkfs PATH SIZE_BYTES")
	}
	size, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad size %q", args[1])
	}
	if sh.session != nil {
		sh.session.Unmount()
	}
	session, err := vsfs.FormatFile(args[0], size)
	if err != nil {
		return err
	}
	sh.session = session
	fmt.Fprintf(out, "VSFS successfully created under image %s\n", args[0])
	return nil
}

func (sh *shell) cmdMount(out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: mount PATH")
	}
	if sh.session != nil {
		return fmt.Errorf("already mounted, run umount first")
	}
	if err := sh.mount(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(out, "Filesystem successfully mounted")
	return nil
}

func (sh *shell) cmdUmount(out io.Writer) error {
	if err := sh.session.Unmount(); err != nil {
		return err
	}
	sh.session = nil
	fmt.Fprintln(out, "Filesystem successfully unmounted")
	return nil
}

func (sh *shell) cmdFilestat(out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: filestat FILE_ID")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad id %q", args[0])
	}
	rec, err := sh.session.Stat(int32(id))
	if err != nil {
		return err
	}
	if !rec.InUse() {
		return fmt.Errorf("no existing file for such id")
	}
	ftype := "Regular file"
	if rec.Ftype != 0 {
		ftype = "Directory"
	}
	fmt.Fprintf(out, "id: %d\ntype: %s\nhard links: %d\nsize: %d\n", id, ftype, rec.Nlinks, rec.Size)
	return nil
}

func (sh *shell) cmdLs(out io.Writer) error {
	rec, err := sh.session.Readdir(false)
	if err != nil {
		return err
	}
	for rec.ID != vsfs.EndID {
		if rec.ID != -1 {
			fmt.Fprintf(out, "%d  %s\n", rec.ID, rec.NameString())
		}
		rec, err = sh.session.Readdir(true)
		if err != nil {
			return err
		}
	}
	return nil
}

func (sh *shell) cmdCreate(out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: create NAME")
	}
	if err := sh.session.Create(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(out, "file created")
	return nil
}

func (sh *shell) cmdOpen(out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: open NAME")
	}
	fd, err := sh.session.Open(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "descriptor: %d\n", fd)
	return nil
}

func (sh *shell) cmdClose(out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: close DESCRIPTOR")
	}
	fd, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad descriptor %q", args[0])
	}
	if err := sh.session.Close(int32(fd)); err != nil {
		return err
	}
	fmt.Fprintln(out, "closed")
	return nil
}

func (sh *shell) cmdRead(out io.Writer, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: read DESCRIPTOR OFFSET SIZE")
	}
	fd, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad descriptor %q", args[0])
	}
	offset, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad offset %q", args[1])
	}
	size, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad size %q", args[2])
	}

	buf := make([]byte, size)
	n, err := sh.session.Read(int32(fd), int32(offset), int32(size), buf)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "read %d bytes: %q\n", n, buf[:n])
	return nil
}

func (sh *shell) cmdWrite(out io.Writer, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: write DESCRIPTOR OFFSET DATA")
	}
	fd, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad descriptor %q", args[0])
	}
	offset, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad offset %q", args[1])
	}
	data := []byte(args[2])

	n, err := sh.session.Write(int32(fd), int32(offset), int32(len(data)), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d bytes\n", n)
	return nil
}

func (sh *shell) cmdLink(out io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: link SRC DEST")
	}
	if err := sh.session.Link(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, "linked")
	return nil
}

func (sh *shell) cmdUnlink(out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unlink NAME")
	}
	if err := sh.session.Unlink(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(out, "unlinked")
	return nil
}

func (sh *shell) cmdTruncate(out io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: truncate NAME NEW_SIZE")
	}
	size, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad size %q", args[1])
	}
	if err := sh.session.Truncate(args[0], int32(size)); err != nil {
		return err
	}
	fmt.Fprintln(out, "truncated")
	return nil
}
