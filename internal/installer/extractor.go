package installer

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/spf13/afero"
	"github.com/xi2/xz" // For reading .xz compressed data

	"setup-project/internal/logger"
)

var (
	// errUnsafePath is returned for archive entries that would land outside the
	// destination directory.
	errUnsafePath = errors.New("archive entry escapes destination")

	errFound = errors.New("found")
)

// ExtractArchive unpacks src into dest, routing on the file extension.
func ExtractArchive(afs afero.Fs, log *logger.Logger, src, dest string) error {
	if err := afs.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	switch {
	case strings.HasSuffix(src, ".zip"):
		log.Debug("compression type is zip")
		return extractZip(afs, src, dest)
	case strings.HasSuffix(src, ".7z"):
		log.Debug("compression type is .7z")
		return extract7z(afs, src, dest)
	case strings.HasSuffix(src, ".tar"), strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"),
		strings.HasSuffix(src, ".tar.bz2"), strings.HasSuffix(src, ".tar.xz"):
		log.Debug("compression type is .tar.*")
		return extractTarArchive(afs, src, dest)
	default:
		return fmt.Errorf("unsupported archive format: %s", src)
	}
}

// extractTarArchive handles tar and compressed tar variants.
func extractTarArchive(afs afero.Fs, src, dest string) error {
	f, err := afs.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(src, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(src, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := afs.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(afs, target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

// extractZip extracts a .zip archive.
func extractZip(afs afero.Fs, src, dest string) error {
	f, size, err := openSized(afs, src)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := zip.NewReader(f, size)
	if err != nil {
		return err
	}

	for _, zf := range r.File {
		target, err := safeJoin(dest, zf.Name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := afs.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return err
		}
		err = writeEntry(afs, target, rc, zf.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extract7z handles .7z extraction using the sevenzip library.
func extract7z(afs afero.Fs, src, dest string) error {
	f, size, err := openSized(afs, src)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := sevenzip.NewReader(f, size)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}

	for _, sf := range r.File {
		target, err := safeJoin(dest, sf.Name)
		if err != nil {
			return err
		}
		if sf.FileInfo().IsDir() {
			if err := afs.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := sf.Open()
		if err != nil {
			return err
		}
		err = writeEntry(afs, target, rc, sf.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func openSized(afs afero.Fs, src string) (afero.File, int64, error) {
	f, err := afs.Open(src)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// writeEntry writes one regular archive member, creating parent directories.
func writeEntry(afs afero.Fs, target string, r io.Reader, mode fs.FileMode) error {
	if err := afs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := afs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, r)
	return errors.Join(err, out.Close())
}

// safeJoin resolves an archive member name below dest, rejecting absolute names and
// ".." components that would escape it.
func safeJoin(dest, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", errUnsafePath, name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !isWithin(dest, target) {
		return "", fmt.Errorf("%w: %s", errUnsafePath, name)
	}
	return target, nil
}

// findExecutable walks root for a regular file called name and returns its path.
// Archives that wrap their contents in a top-level folder put the executable there
// rather than directly in root.
func findExecutable(afs afero.Fs, root, name string) (string, error) {
	var found string
	err := afero.Walk(afs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && info.Name() == name {
			found = path
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no %s found in %s", name, root)
	}
	return found, nil
}
