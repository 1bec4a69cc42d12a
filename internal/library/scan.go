package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoRoots is returned when no library roots are configured.
var ErrNoRoots = errors.New("no library roots configured")

// Entry is one title folder found in the library.
type Entry struct {
	Path string
	Key  string
}

// Scan lists the entries of every root in configuration order. Within a root
// entries are sorted by name. When two roots contain the same folder name the
// first one wins, since the name is the key shared by both record stores.
func Scan(roots []string, skipHidden bool) ([]Entry, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	var entries []Entry
	seen := make(map[string]struct{})
	for _, root := range roots {
		dirs, err := expandRoot(root)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			found, err := listDir(dir, skipHidden)
			if err != nil {
				return nil, err
			}
			for _, entry := range found {
				if _, dup := seen[entry.Key]; dup {
					continue
				}
				seen[entry.Key] = struct{}{}
				entries = append(entries, entry)
			}
		}
	}
	return entries, nil
}

// Keys returns the title keys of entries in order.
func Keys(entries []Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Dirs returns the directories Scan lists for roots, in the same order.
// Root patterns are expanded; missing roots are skipped.
func Dirs(roots []string) ([]string, error) {
	var dirs []string
	for _, root := range roots {
		expanded, err := expandRoot(root)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, expanded...)
	}
	return dirs, nil
}

func expandRoot(root string) ([]string, error) {
	if info, err := os.Stat(root); err == nil {
		if !info.IsDir() {
			return nil, nil
		}
		return []string{root}, nil
	}

	matches, err := doublestar.FilepathGlob(root)
	if err != nil {
		return nil, fmt.Errorf("expand library root %q: %w", root, err)
	}
	sort.Strings(matches)
	dirs := make([]string, 0, len(matches))
	for _, match := range matches {
		if info, statErr := os.Stat(match); statErr == nil && info.IsDir() {
			dirs = append(dirs, match)
		}
	}
	return dirs, nil
}

func listDir(dir string, skipHidden bool) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read library root %q: %w", dir, err)
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		name := item.Name()
		if skipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		entries = append(entries, Entry{Path: filepath.Join(dir, name), Key: name})
	}
	return entries, nil
}
