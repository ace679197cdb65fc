// Package savedir finds the game's save directory and the saves in it
package savedir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Save is one save archive on disk.
type Save struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// GetSavesDir returns the save directory. An explicit dir wins, then
// FACTORIO_SAVES_DIR, then the platform default of a standalone install.
func GetSavesDir(dir string) string {
	if dir != "" {
		return dir
	}

	// Check environment variable first
	if savesDir := os.Getenv("FACTORIO_SAVES_DIR"); savesDir != "" {
		return savesDir
	}

	// Use platform-specific defaults
	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Application Support", "factorio", "saves")
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Factorio", "saves")
		}
	default:
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".factorio", "saves")
		}
	}

	// Fallback to the working directory
	return "saves"
}

// List returns the .zip saves directly inside dir, most recently modified
// first. Subdirectories are not searched.
func List(dir string) ([]Save, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read saves directory: %w", err)
	}

	var saves []Save
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed while listing
			continue
		}
		saves = append(saves, Save{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(saves, func(i, j int) bool {
		if !saves[i].ModTime.Equal(saves[j].ModTime) {
			return saves[i].ModTime.After(saves[j].ModTime)
		}
		return saves[i].Name < saves[j].Name
	})

	return saves, nil
}
