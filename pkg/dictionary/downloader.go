package dictionary

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	repoOwner = "scriptin"
	repoName  = "jmdict-simplified"
)

// Downloader fetches the latest English jmdict-simplified release.
type Downloader struct {
	Client *http.Client
	// ReleaseURL is the GitHub "latest release" API endpoint.
	ReleaseURL string
	Logger     *slog.Logger
}

// NewDownloader returns a Downloader for the public GitHub release.
func NewDownloader(logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Downloader{
		Client:     &http.Client{Timeout: 5 * time.Minute},
		ReleaseURL: fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName),
		Logger:     logger.With("component", "downloader"),
	}
}

// Ensure checks if the dictionary JSON exists at path. If not, it discovers
// the latest release, downloads it and decompresses it.
func (d *Downloader) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	d.Logger.Info("dictionary not found, downloading", slog.String("path", path))
	downloadURL, err := d.latestReleaseAssetURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to find latest dictionary release: %w", err)
	}

	d.Logger.Info("downloading", slog.String("url", downloadURL))
	return d.downloadAndExtract(ctx, downloadURL, path)
}

func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// GitHub rejects API requests without a User-Agent.
	req.Header.Set("User-Agent", "vocabulist-cli")
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return resp, nil
}

func (d *Downloader) latestReleaseAssetURL(ctx context.Context) (string, error) {
	resp, err := d.get(ctx, d.ReleaseURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	// The full English dictionary, not the "common" subset:
	// jmdict-eng-<version>.json.tgz
	var common string
	for _, asset := range release.Assets {
		if !strings.HasSuffix(asset.Name, ".json.tgz") && !strings.HasSuffix(asset.Name, ".json.gz") {
			continue
		}
		switch {
		case strings.HasPrefix(asset.Name, "jmdict-eng-common"):
			common = asset.BrowserDownloadURL
		case strings.HasPrefix(asset.Name, "jmdict-eng-"):
			return asset.BrowserDownloadURL, nil
		}
	}
	if common != "" {
		return common, nil
	}
	return "", fmt.Errorf("no suitable dictionary asset found in latest release")
}

func (d *Downloader) downloadAndExtract(ctx context.Context, url, destPath string) error {
	resp, err := d.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	if strings.HasSuffix(url, ".json.gz") {
		return writeFile(destPath, gzReader)
	}

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
			return writeFile(destPath, tarReader)
		}
	}
	return fmt.Errorf("no json file found in downloaded archive")
}

// writeFile writes r to path through a temporary file so a failed download
// does not leave a truncated dictionary that Ensure would accept.
func writeFile(path string, r io.Reader) error {
	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
