// Package fsadapt wraps the blocking filesystem primitives the dumper needs.
// Every call here may block; callers offload through the fs executor.
package fsadapt

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// FS is the blocking filesystem surface of the dump directory.
type FS interface {
	Exists(path string) (bool, error)
	ReadAll(path string) ([]byte, error)
	// WriteAtomic writes data to path with perm. The caller-visible effect
	// is all-or-nothing: contents land in a .tmp sidefile first and are
	// renamed onto path after a sync.
	WriteAtomic(path string, data []byte, perm os.FileMode) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
	// ListRegularFiles yields the names (not paths) of all regular files
	// in dir. Non-regular entries are skipped, never hidden by error.
	ListRegularFiles(dir string) ([]string, error)
}

// Client implements FS on top of an afero filesystem.
type Client struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Client {
	return &Client{fs: fs}
}

// NewOS returns a Client over the host filesystem.
func NewOS() *Client {
	return New(afero.NewOsFs())
}

func (c *Client) Exists(path string) (bool, error) {
	ok, err := afero.Exists(c.fs, path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return ok, nil
}

func (c *Client) ReadAll(path string) ([]byte, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (c *Client) WriteAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"

	if err := c.writeFile(tmp, data, perm); err != nil {
		_ = c.fs.Remove(tmp)
		return err
	}
	if err := c.fs.Rename(tmp, path); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("rename %s onto %s: %w", tmp, path, err)
	}
	return nil
}

func (c *Client) writeFile(path string, data []byte, perm os.FileMode) error {
	f, err := c.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	// O_CREATE perm is subject to umask; force the exact mode.
	if err = c.fs.Chmod(path, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

func (c *Client) Rename(oldPath, newPath string) error {
	if err := c.fs.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

func (c *Client) Remove(path string) error {
	if err := c.fs.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (c *Client) ListRegularFiles(dir string) ([]string, error) {
	infos, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if !fi.Mode().IsRegular() {
			continue
		}
		names = append(names, fi.Name())
	}
	return names, nil
}
