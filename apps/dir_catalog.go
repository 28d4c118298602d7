package apps

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional file in an apps directory that names apps and their icons.
const ManifestFile = "apps.yaml"

var iconExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Manifest is the on-disk format of ManifestFile.
type Manifest struct {
	Apps []ManifestEntry `yaml:"apps"`
}

// ManifestEntry names one app. Icon is relative to the apps directory and
// defaults to the first <package>.{png,jpg,jpeg,webp} found.
type ManifestEntry struct {
	Package string `yaml:"package"`
	Name    string `yaml:"name"`
	Icon    string `yaml:"icon,omitempty"`
}

type dirEntry struct {
	name     string
	iconPath string
}

// DirCatalog serves apps from a directory of icon files. Icons are decoded on
// first lookup and cached until Reload.
type DirCatalog struct {
	dir string

	mu      sync.RWMutex
	entries map[string]dirEntry
	icons   map[string]image.Image
	// gen counts reloads; a decode started under an older gen is not cached.
	gen uint64
}

// NewDirCatalog scans dir. A missing directory yields an empty catalog.
func NewDirCatalog(dir string) (*DirCatalog, error) {
	c := &DirCatalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rescans the directory and drops cached icons.
func (c *DirCatalog) Reload() error {
	entries, err := scanAppsDir(c.dir)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries = entries
	c.icons = make(map[string]image.Image)
	c.gen++
	c.mu.Unlock()

	log.Printf("App catalog loaded: %d app(s) from %s", len(entries), c.dir)
	return nil
}

func (c *DirCatalog) Lookup(packageName string) (AppInfo, bool) {
	packageName = strings.TrimSpace(packageName)
	if packageName == "" {
		return AppInfo{}, false
	}

	c.mu.RLock()
	entry, ok := c.entries[packageName]
	icon, cached := c.icons[packageName]
	gen := c.gen
	c.mu.RUnlock()
	if !ok {
		return AppInfo{}, false
	}

	if !cached {
		decoded, err := imaging.Open(entry.iconPath)
		if err != nil {
			log.Printf("Failed to decode icon for %s (%s): %v", packageName, entry.iconPath, err)
			return AppInfo{}, false
		}
		c.cacheIcon(packageName, entry.iconPath, gen, decoded)
		icon = decoded
	}

	return AppInfo{PackageName: packageName, Name: entry.name, Icon: icon}, true
}

// cacheIcon stores icon unless the catalog was reloaded since gen or the
// package now points at a different file.
func (c *DirCatalog) cacheIcon(packageName, iconPath string, gen uint64, icon image.Image) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	if cur, ok := c.entries[packageName]; !ok || cur.iconPath != iconPath {
		return false
	}
	c.icons[packageName] = icon
	return true
}

// List returns all apps without decoding icons.
func (c *DirCatalog) List() []AppInfo {
	c.mu.RLock()
	out := make([]AppInfo, 0, len(c.entries))
	for pkg, entry := range c.entries {
		out = append(out, AppInfo{PackageName: pkg, Name: entry.name})
	}
	c.mu.RUnlock()

	sortByName(out)
	return out
}

func scanAppsDir(dir string) (map[string]dirEntry, error) {
	entries := make(map[string]dirEntry)

	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("failed to read apps dir %s: %w", dir, err)
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if !isIconExt(ext) {
			continue
		}
		pkg := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		if _, exists := entries[pkg]; exists {
			continue
		}
		entries[pkg] = dirEntry{name: pkg, iconPath: filepath.Join(dir, f.Name())}
	}

	manifest, err := readManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	for _, m := range manifest.Apps {
		pkg := strings.TrimSpace(m.Package)
		if pkg == "" {
			continue
		}
		entry, exists := entries[pkg]
		if m.Icon != "" {
			entry.iconPath = filepath.Join(dir, m.Icon)
			exists = true
		}
		if !exists {
			log.Printf("App %s listed in %s has no icon, skipping", pkg, ManifestFile)
			continue
		}
		entry.name = pkg
		if name := strings.TrimSpace(m.Name); name != "" {
			entry.name = name
		}
		entries[pkg] = entry
	}

	return entries, nil
}

func readManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return m, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

func isIconExt(ext string) bool {
	for _, e := range iconExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
