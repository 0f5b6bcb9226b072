package update

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Apply downloads the release binary next to the running executable,
// verifies it against the published checksums, and swaps it in with a
// rename pair so the install is atomic and survives a crash mid-way.
func Apply(rel *Release) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("resolve symlinks: %w", err)
	}

	// A .old left behind by an interrupted previous update would make
	// the backup rename below fail on Windows.
	oldPath := execPath + ".old"
	_ = os.Remove(oldPath)

	tmpPath, sum, err := downloadAsset(rel.AssetURL, filepath.Dir(execPath))
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if rel.ChecksumURL != "" {
		want, err := publishedSum(rel.ChecksumURL, assetName())
		if err != nil {
			return fmt.Errorf("fetch checksums: %w", err)
		}
		if sum != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", sum[:12], want[:12])
		}
	}

	if err := os.Chmod(tmpPath, 0755); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	if err := os.Rename(execPath, oldPath); err != nil {
		return fmt.Errorf("backup current binary: %w", err)
	}
	if err := os.Rename(tmpPath, execPath); err != nil {
		_ = os.Rename(oldPath, execPath) // roll back
		return fmt.Errorf("install new binary: %w", err)
	}
	_ = os.Remove(oldPath)
	return nil
}

// downloadAsset streams url into a temp file in dir (same filesystem
// as the executable, so the final rename stays atomic) and returns the
// temp path with the hex sha256 of what was written.
func downloadAsset(url, dir string) (path, sum string, err error) {
	tmp, err := os.CreateTemp(dir, ".jargon-update-*")
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	path = tmp.Name()
	defer func() {
		tmp.Close()
		if err != nil {
			os.Remove(path)
		}
	}()

	resp, err := http.Get(url)
	if err != nil {
		return "", "", fmt.Errorf("download binary: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", "", fmt.Errorf("download binary: %s", resp.Status)
	}

	hasher := sha256.New()
	src := io.Reader(resp.Body)
	if resp.ContentLength > 0 {
		src = &downloadMeter{r: resp.Body, total: resp.ContentLength}
	}
	if _, err = io.Copy(io.MultiWriter(tmp, hasher), src); err != nil {
		return "", "", fmt.Errorf("write binary: %w", err)
	}
	if resp.ContentLength > 0 {
		fmt.Fprintln(os.Stderr) // end the progress line
	}
	return path, hex.EncodeToString(hasher.Sum(nil)), nil
}

// downloadMeter writes a single-line percentage to stderr as the
// body streams through it.
type downloadMeter struct {
	r     io.Reader
	total int64
	seen  int64
}

func (d *downloadMeter) Read(b []byte) (int, error) {
	n, err := d.r.Read(b)
	d.seen += int64(n)
	pct := float64(d.seen) / float64(d.total) * 100
	fmt.Fprintf(os.Stderr, "\r  %.0f%% (%d / %d KB)", pct, d.seen/1024, d.total/1024)
	return n, err
}

// publishedSum finds the checksum recorded for filename in the
// release's checksums.txt ("<hash>  <filename>", one per line).
func publishedSum(checksumURL, filename string) (string, error) {
	resp, err := http.Get(checksumURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("checksums: %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 2 && parts[1] == filename {
			return parts[0], nil
		}
	}
	return "", fmt.Errorf("no checksum for %s", filename)
}
