package md2site

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Locator finds a browser binary installed under a conventional layout:
// <RootName>/<DirPrefix>*/<RelPath>.
type Locator struct {
	RootName  string // parent directory name, e.g. "ms-playwright"
	DirPrefix string // versioned install directory prefix, e.g. "chromium-"
	RelPath   string // binary path inside the install directory
}

// DefaultLocator returns the layout used by `playwright install chromium`
// on the current platform.
func DefaultLocator() Locator {
	return Locator{
		RootName:  "ms-playwright",
		DirPrefix: "chromium-",
		RelPath:   playwrightRelPath(runtime.GOOS),
	}
}

func playwrightRelPath(goos string) string {
	switch goos {
	case "darwin":
		return filepath.Join("chrome-mac", "Chromium.app", "Contents", "MacOS", "Chromium")
	case "windows":
		return filepath.Join("chrome-win", "chrome.exe")
	default:
		return filepath.Join("chrome-linux", "chrome")
	}
}

// DefaultSearchRoot returns the user cache directory, the parent of
// Playwright's browser store. Returns "" if it cannot be determined.
func DefaultSearchRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return dir
}

// FindExecutable searches baseDir with DefaultLocator.
func FindExecutable(baseDir string) (string, bool) {
	return DefaultLocator().Find(baseDir)
}

// Find walks baseDir depth-first in lexical order and returns the absolute
// path of the first candidate binary that exists as a regular file.
// Missing or unreadable trees yield ("", false); unreadable subdirectories
// are skipped.
func (l Locator) Find(baseDir string) (string, bool) {
	if baseDir == "" || l.DirPrefix == "" || l.RelPath == "" {
		return "", false
	}

	var found string
	_ = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != baseDir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() || !l.isCandidate(path) {
			return nil
		}

		bin := filepath.Join(path, l.RelPath)
		if info, statErr := os.Stat(bin); statErr == nil && info.Mode().IsRegular() {
			found = bin
			return fs.SkipAll
		}
		// Install directories hold no nested installs.
		return fs.SkipDir
	})

	if found == "" {
		return "", false
	}
	abs, err := filepath.Abs(found)
	if err != nil {
		return found, true
	}
	return abs, true
}

func (l Locator) isCandidate(dir string) bool {
	if !strings.HasPrefix(filepath.Base(dir), l.DirPrefix) {
		return false
	}
	return l.RootName == "" || filepath.Base(filepath.Dir(dir)) == l.RootName
}
