package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Document is an ordered collection of pages plus its reading state
type Document struct {
	Name  string
	Path  string
	Pages []ImagePath

	LastReadPageIndex int
	DoneReading       bool

	// OpenedAt is the page named on the command line, or NoPage
	OpenedAt int
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// OpenDocument collects the pages named by args: image files, directories
// and zip/rar/7z archives.
func OpenDocument(args []string, sortMethod int) (*Document, error) {
	pages, err := collectImages(args, sortMethod)
	if err != nil {
		return nil, err
	}

	if len(args) == 1 && len(pages) == 1 && pages[0].Path == args[0] && isSupportedExt(args[0]) {
		if doc, ok := expandSingleImage(pages[0].Path, sortMethod); ok {
			return doc, nil
		}
	}

	doc := &Document{Pages: pages, OpenedAt: NoPage}
	switch len(args) {
	case 0:
		doc.Name = "(empty)"
	case 1:
		abs, err := filepath.Abs(args[0])
		if err != nil {
			abs = args[0]
		}
		doc.Path = abs
		doc.Name = filepath.Base(abs)
	default:
		doc.Path = args[0]
		doc.Name = fmt.Sprintf("%s (+%d)", filepath.Base(args[0]), len(args)-1)
	}
	return doc, nil
}

// expandSingleImage opens the directory of a lone image file, positioned at that file
func expandSingleImage(filePath string, sortMethod int) (*Document, bool) {
	pages, err := collectImagesFromSameDirectory(filePath, sortMethod)
	if err != nil {
		logger.Warn("cannot expand to directory", "path", filePath, "error", err)
		return nil, false
	}

	dir, err := filepath.Abs(filepath.Dir(filePath))
	if err != nil {
		dir = filepath.Dir(filePath)
	}
	doc := &Document{
		Name:     filepath.Base(dir),
		Path:     dir,
		Pages:    pages,
		OpenedAt: NoPage,
	}
	for i, p := range pages {
		if filepath.Clean(p.Path) == filepath.Clean(filePath) {
			doc.OpenedAt = i
			doc.LastReadPageIndex = i
			break
		}
	}
	return doc, true
}

// collectImagesFromSameDirectory lists the image files next to filePath,
// without archives or subdirectories
func collectImagesFromSameDirectory(filePath string, sortMethod int) ([]ImagePath, error) {
	dir := filepath.Dir(filePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var images []ImagePath
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if fullPath := filepath.Join(dir, entry.Name()); isSupportedExt(fullPath) {
			images = append(images, ImagePath{Path: fullPath})
		}
	}
	return sortImagePaths(images, sortMethod), nil
}

func sortImagePaths(images []ImagePath, sortMethod int) []ImagePath {
	strategy := GetSortStrategy(sortMethod)
	return strategy.Sort(images)
}

func processArchive(archivePath string, sortMethod int) ([]ImagePath, error) {
	pages, err := listArchivePages(archivePath)
	if err != nil {
		logger.Error("failed to process archive", "path", archivePath, "error", err)
		return nil, err
	}
	return sortImagePaths(pages, sortMethod), nil
}

func collectImages(args []string, sortMethod int) ([]ImagePath, error) {
	var list []ImagePath
	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			switch {
			case isSupportedExt(p):
				list = append(list, ImagePath{Path: p})
			case isArchiveExt(p):
				pages, err := processArchive(p, sortMethod)
				if err != nil {
					logger.Warn("skipping problematic archive", "path", p, "error", err)
					continue
				}
				list = append(list, pages...)
			}
			continue
		}

		var dirImages []ImagePath
		err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}
			if isSupportedExt(path) {
				dirImages = append(dirImages, ImagePath{Path: path})
			} else if isArchiveExt(path) {
				pages, err := processArchive(path, sortMethod)
				if err != nil {
					logger.Warn("skipping problematic archive", "path", path, "error", err)
					return nil
				}
				dirImages = append(dirImages, pages...)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		list = append(list, sortImagePaths(dirImages, sortMethod)...)
	}

	return list, nil
}
