// Package apps provides the installed-app lookup used to resolve widget icons.
package apps

import (
	"image"
	"sort"
	"strings"
	"sync"
)

// AppInfo describes one installed app.
type AppInfo struct {
	PackageName string      `json:"package_name"`
	Name        string      `json:"name"`
	Icon        image.Image `json:"-"`
}

// Catalog looks up installed apps by package name.
type Catalog interface {
	// Lookup returns the app and true, or false when it is not installed.
	Lookup(packageName string) (AppInfo, bool)
	// List returns installed apps sorted by display name.
	List() []AppInfo
}

// MemoryCatalog is a Catalog backed by a map. The zero value is empty and ready to use.
type MemoryCatalog struct {
	mu   sync.RWMutex
	apps map[string]AppInfo
}

// NewMemoryCatalog returns a catalog holding the given apps.
func NewMemoryCatalog(infos ...AppInfo) *MemoryCatalog {
	c := &MemoryCatalog{}
	for _, info := range infos {
		c.Add(info)
	}
	return c
}

// Add installs or replaces an app.
func (c *MemoryCatalog) Add(info AppInfo) {
	info.PackageName = strings.TrimSpace(info.PackageName)
	if info.PackageName == "" {
		return
	}
	if info.Name == "" {
		info.Name = info.PackageName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.apps == nil {
		c.apps = make(map[string]AppInfo)
	}
	c.apps[info.PackageName] = info
}

// Remove uninstalls an app.
func (c *MemoryCatalog) Remove(packageName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.apps, packageName)
}

func (c *MemoryCatalog) Lookup(packageName string) (AppInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.apps[strings.TrimSpace(packageName)]
	return info, ok
}

func (c *MemoryCatalog) List() []AppInfo {
	c.mu.RLock()
	out := make([]AppInfo, 0, len(c.apps))
	for _, info := range c.apps {
		out = append(out, info)
	}
	c.mu.RUnlock()

	sortByName(out)
	return out
}

func sortByName(infos []AppInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].PackageName < infos[j].PackageName
	})
}
