package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"jargon/log"
)

const (
	releasesURL = "https://api.github.com/repos/" + Repo + "/releases/latest"

	cacheFile = "update_check.json"
	// A verdict holds for a day; the background ticker mostly re-reads
	// the cache and only goes to the network when it has gone stale.
	cacheTTL      = 24 * time.Hour
	checkInterval = 5 * time.Minute
)

var checkClient = &http.Client{Timeout: 15 * time.Second}

// The slice of the GitHub release document the updater reads.
type ghRelease struct {
	TagName string    `json:"tag_name"`
	Assets  []ghAsset `json:"assets"`
}

type ghAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// assetName is the per-platform binary name releases are published
// under: jargon_<os>_<arch>, with .exe appended on Windows.
func assetName() string {
	name := fmt.Sprintf("%s_%s_%s", BinaryName, runtime.GOOS, runtime.GOARCH)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name
}

// CheckLatest asks GitHub for the latest release and returns it when
// it is newer than currentVersion, nil otherwise. Dev builds never
// self-update.
func CheckLatest(currentVersion string) (*Release, error) {
	if currentVersion == "dev" {
		return nil, nil
	}

	rel, err := fetchLatest()
	if err != nil {
		return nil, err
	}
	if !rel.NewerThan(currentVersion) {
		return nil, nil
	}
	return rel, nil
}

func fetchLatest() (*Release, error) {
	req, err := http.NewRequest("GET", releasesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := checkClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("github api: %s", resp.Status)
	}

	var doc ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}

	want := assetName()
	rel := &Release{Version: doc.TagName}
	for _, a := range doc.Assets {
		switch a.Name {
		case want:
			rel.AssetURL = a.BrowserDownloadURL
		case "checksums.txt":
			rel.ChecksumURL = a.BrowserDownloadURL
		}
	}
	if rel.AssetURL == "" {
		return nil, fmt.Errorf("no asset %q in release %s", want, doc.TagName)
	}
	return rel, nil
}

// checkCache records the outcome of one check. For pins the verdict to
// the version it was computed against, so a binary that just updated
// itself does not inherit the old binary's "no update" answer.
type checkCache struct {
	For         string `json:"for"`
	Version     string `json:"version"` // "" means no update at the time
	AssetURL    string `json:"asset_url"`
	ChecksumURL string `json:"checksum_url"`
	CheckedAt   int64  `json:"checked_at"`
}

func cachePath(cacheDir string) string {
	return filepath.Join(cacheDir, cacheFile)
}

func readCache(cacheDir, currentVersion string) (*Release, bool) {
	data, err := os.ReadFile(cachePath(cacheDir))
	if err != nil {
		return nil, false
	}
	var c checkCache
	if json.Unmarshal(data, &c) != nil {
		return nil, false
	}
	if c.For != currentVersion || time.Since(time.Unix(c.CheckedAt, 0)) > cacheTTL {
		return nil, false
	}
	if c.Version == "" {
		return nil, true // cached "no update"
	}
	return &Release{Version: c.Version, AssetURL: c.AssetURL, ChecksumURL: c.ChecksumURL}, true
}

func writeCache(cacheDir, currentVersion string, rel *Release) {
	c := checkCache{For: currentVersion, CheckedAt: time.Now().Unix()}
	if rel != nil {
		c.Version = rel.Version
		c.AssetURL = rel.AssetURL
		c.ChecksumURL = rel.ChecksumURL
	}
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	_ = os.MkdirAll(cacheDir, 0755)
	_ = os.WriteFile(cachePath(cacheDir), data, 0644)
}

// CheckLatestCached is CheckLatest behind the on-disk verdict cache.
func CheckLatestCached(currentVersion, cacheDir string) (*Release, error) {
	if currentVersion == "dev" {
		return nil, nil
	}
	if rel, ok := readCache(cacheDir, currentVersion); ok {
		return rel, nil
	}
	rel, err := CheckLatest(currentVersion)
	if err != nil {
		return nil, err
	}
	writeCache(cacheDir, currentVersion, rel)
	return rel, nil
}

// StartBackgroundCheck polls for a newer release and calls notify at
// most once per discovered version, so the tray and TUI are not
// re-nagged every tick with the same cached answer.
func StartBackgroundCheck(currentVersion, cacheDir string, notify func(Release)) {
	if currentVersion == "dev" {
		return
	}
	go func() {
		notified := ""
		check := func() {
			rel, err := CheckLatestCached(currentVersion, cacheDir)
			if err != nil {
				log.Warnf("update: check failed: %v", err)
				return
			}
			if rel == nil || rel.Version == notified {
				return
			}
			notified = rel.Version
			notify(*rel)
		}
		check()
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()
		for range ticker.C {
			check()
		}
	}()
}
