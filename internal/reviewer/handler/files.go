package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes a reviewable example file.
type FileInfo struct {
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"size_bytes"`
	Lines      int    `json:"lines"`
	Characters int    `json:"characters"`
	Modified   string `json:"modified"`
	Error      string `json:"error,omitempty"`
}

// FileSource serves example code files from a local directory.
// Only files matching the configured extension are exposed, and
// filenames are stripped to their base name to keep reads inside
// the directory.
type FileSource struct {
	dir string
	ext string
}

// NewFileSource creates a FileSource rooted at dir. ext defaults to ".py".
func NewFileSource(dir, ext string) *FileSource {
	if ext == "" {
		ext = ".py"
	}
	return &FileSource{dir: dir, ext: ext}
}

// Names returns the sorted list of available filenames.
func (s *FileSource) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read examples directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.ext) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// List returns metadata for every available file. Files that cannot
// be read contribute an entry carrying the error instead of failing
// the whole listing.
func (s *FileSource) List() ([]FileInfo, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}

	infos := make([]FileInfo, 0, len(names))
	for _, name := range names {
		stat, statErr := os.Stat(filepath.Join(s.dir, name))
		if statErr != nil {
			infos = append(infos, FileInfo{Filename: name, Error: statErr.Error()})
			continue
		}
		content, readErr := s.Read(name)
		if readErr != nil {
			infos = append(infos, FileInfo{Filename: name, Error: readErr.Error()})
			continue
		}
		infos = append(infos, FileInfo{
			Filename:   name,
			SizeBytes:  stat.Size(),
			Lines:      len(strings.Split(content, "\n")),
			Characters: len(content),
			Modified:   stat.ModTime().Format(time.RFC3339),
		})
	}
	return infos, nil
}

// Resolve normalizes a user-supplied filename and checks it exists.
func (s *FileSource) Resolve(filename string) (string, error) {
	name := filepath.Base(filename)
	if !strings.HasSuffix(name, s.ext) {
		name += s.ext
	}

	names, err := s.Names()
	if err != nil {
		return "", err
	}
	for _, candidate := range names {
		if candidate == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("file %s not found", name)
}

// Read returns the content of a file after Resolve-style normalization.
func (s *FileSource) Read(filename string) (string, error) {
	name := filepath.Base(filename)
	if !strings.HasSuffix(name, s.ext) {
		name += s.ext
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("read file %s: %w", name, err)
	}
	return string(data), nil
}

// Dir returns the configured directory.
func (s *FileSource) Dir() string {
	return s.dir
}
