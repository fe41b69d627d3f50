package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"setup-project/internal/logger"
)

// partSuffix marks an archive that is still being written. Only a complete body is
// renamed to the real package name.
const partSuffix = ".part"

// download is the result of a completed fetch.
type download struct {
	Path   string // Final archive path
	Size   int64
	SHA256 string // Hex digest of the body
}

// downloadFile fetches url into destPath.
// The body is streamed into destPath+".part" and renamed once complete. On any failure
// the partial file is removed and a *DownloadError is returned, so destPath either holds
// the whole archive or does not exist.
func downloadFile(ctx context.Context, client *http.Client, fs afero.Fs, log *logger.Logger, url, destPath, wantSHA256 string) (download, error) {
	fail := func(status int, err error) (download, error) {
		return download{}, &DownloadError{URL: url, Destination: destPath, Status: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(0, err)
	}

	log.Debug("GET %s", url)
	resp, err := client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn("Failed to close response body: %v", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	partPath := destPath + partSuffix
	out, err := fs.Create(partPath)
	if err != nil {
		return fail(0, fmt.Errorf("failed to create file %s: %w", partPath, err))
	}

	hash := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(out, hash), resp.Body)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		removePartial(fs, log, partPath)
		return fail(0, fmt.Errorf("failed to write response to file: %w", err))
	}

	// A short body is a truncated transfer, not an archive.
	if resp.ContentLength > 0 && n != resp.ContentLength {
		removePartial(fs, log, partPath)
		return fail(0, fmt.Errorf("received %d of %d bytes", n, resp.ContentLength))
	}

	sum := hex.EncodeToString(hash.Sum(nil))
	if wantSHA256 != "" && sum != wantSHA256 {
		removePartial(fs, log, partPath)
		return fail(0, fmt.Errorf("sha256 mismatch: expected %s, got %s", wantSHA256, sum))
	}

	if err := fs.Rename(partPath, destPath); err != nil {
		removePartial(fs, log, partPath)
		return fail(0, fmt.Errorf("failed to move %s into place: %w", partPath, err))
	}

	log.Info("Downloaded %s (%s)", destPath, humanize.Bytes(uint64(n)))
	return download{Path: destPath, Size: n, SHA256: sum}, nil
}

func removePartial(fs afero.Fs, log *logger.Logger, path string) {
	if err := fs.Remove(path); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		log.Warn("Failed to remove partial download %s: %v", path, err)
	}
}
