package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"
)

// ImagePath locates a page either on disk or inside an archive
type ImagePath struct {
	Path        string // Local file path or archive:entry format
	ArchivePath string // Empty for regular files, path to archive for entries
	EntryPath   string // Empty for regular files, path within archive for entries
}

// Name returns the display name of the page
func (p ImagePath) Name() string {
	if p.EntryPath != "" {
		return filepath.Base(p.EntryPath)
	}
	return filepath.Base(p.Path)
}

func isArchiveExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".zip", ".cbz", ".rar", ".cbr", ".7z", ".cb7":
		return true
	default:
		return false
	}
}

func isSupportedExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif":
		return true
	default:
		return false
	}
}

// archiveKind normalizes comic book extensions to the container format
func archiveKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".cbz":
		return "zip"
	case ".rar", ".cbr":
		return "rar"
	case ".7z", ".cb7":
		return "7z"
	default:
		return ""
	}
}

// readPageData returns the encoded bytes of a page
func readPageData(p ImagePath) ([]byte, error) {
	if p.ArchivePath == "" {
		return os.ReadFile(p.Path)
	}

	switch kind := archiveKind(p.ArchivePath); kind {
	case "zip":
		return readZipEntry(p.ArchivePath, p.EntryPath)
	case "rar":
		return readRarEntry(p.ArchivePath, p.EntryPath)
	case "7z":
		return read7zEntry(p.ArchivePath, p.EntryPath)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Ext(p.ArchivePath))
	}
}

func readZipEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entryPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func readRarEntry(archivePath, entryPath string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Name == entryPath {
			return io.ReadAll(r)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func read7zEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entryPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

// listArchivePages returns the image entries of an archive in entry order
func listArchivePages(archivePath string) ([]ImagePath, error) {
	var names []string

	switch kind := archiveKind(archivePath); kind {
	case "zip":
		r, err := zip.OpenReader(archivePath)
		if err != nil {
			return nil, err
		}
		for _, f := range r.File {
			if !f.FileInfo().IsDir() {
				names = append(names, f.Name)
			}
		}
		r.Close()
	case "rar":
		f, err := os.Open(archivePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r, err := rardecode.NewReader(f, "")
		if err != nil {
			return nil, err
		}
		for {
			header, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if !header.IsDir {
				names = append(names, header.Name)
			}
		}
	case "7z":
		r, err := sevenzip.OpenReader(archivePath)
		if err != nil {
			return nil, err
		}
		for _, f := range r.File {
			if !f.FileInfo().IsDir() {
				names = append(names, f.Name)
			}
		}
		r.Close()
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Ext(archivePath))
	}

	var pages []ImagePath
	for _, name := range names {
		if !isSupportedExt(name) {
			continue
		}
		pages = append(pages, ImagePath{
			Path:        archivePath + ":" + name,
			ArchivePath: archivePath,
			EntryPath:   name,
		})
	}
	return pages, nil
}
