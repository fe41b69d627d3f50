package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// copyFile copies src to dst, creating dst's directory. The copy gets mode when it is
// non-zero and src's permissions otherwise.
func copyFile(fs afero.Fs, src, dst string, mode os.FileMode) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source failed: %w", err)
	}
	defer in.Close()

	if mode == 0 {
		info, err := in.Stat()
		if err != nil {
			return fmt.Errorf("stat source failed: %w", err)
		}
		mode = info.Mode().Perm()
	}

	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("create target failed: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close target failed: %w", cerr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	return fs.Chmod(dst, mode)
}

// moveFile renames src to dst, copying and removing src when a rename is not possible
// (for example across volumes).
func moveFile(fs afero.Fs, src, dst string) error {
	if err := fs.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(fs, src, dst, 0); err != nil {
		return err
	}
	return fs.Remove(src)
}
