package main

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestIsSupportedExt(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"PNG file", "test.png", true},
		{"JPG file", "test.jpg", true},
		{"JPEG file", "test.jpeg", true},
		{"WebP file", "test.webp", true},
		{"BMP file", "test.bmp", true},
		{"GIF file", "test.gif", true},
		{"PNG uppercase", "test.PNG", true},
		{"Text file", "test.txt", false},
		{"Archive", "vol01.cbz", false},
		{"No extension", "test", false},
		{"Empty string", "", false},
		{"Multiple dots", "test.backup.jpg", true},
		{"Archive entry", "vol01.cbz:pages/001.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSupportedExt(tt.path); got != tt.expected {
				t.Errorf("isSupportedExt(%s) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestArchiveKind(t *testing.T) {
	tests := []struct {
		path string
		kind string
	}{
		{"book.zip", "zip"},
		{"book.CBZ", "zip"},
		{"book.rar", "rar"},
		{"book.cbr", "rar"},
		{"book.7z", "7z"},
		{"book.cb7", "7z"},
		{"book.tar", ""},
		{"page.png", ""},
	}

	for _, tt := range tests {
		if got := archiveKind(tt.path); got != tt.kind {
			t.Errorf("archiveKind(%s) = %q, want %q", tt.path, got, tt.kind)
		}
		if got := isArchiveExt(tt.path); got != (tt.kind != "") {
			t.Errorf("isArchiveExt(%s) = %v", tt.path, got)
		}
	}
}

func TestImagePathName(t *testing.T) {
	if got := (ImagePath{Path: "/a/b/003.png"}).Name(); got != "003.png" {
		t.Errorf("file Name() = %q", got)
	}
	entry := ImagePath{Path: "/a/vol.cbz:ch1/004.jpg", ArchivePath: "/a/vol.cbz", EntryPath: "ch1/004.jpg"}
	if got := entry.Name(); got != "004.jpg" {
		t.Errorf("entry Name() = %q", got)
	}
}

func TestCollectImages(t *testing.T) {
	tempDir := t.TempDir()

	testFiles := []struct {
		name      string
		shouldAdd bool
	}{
		{"page10.jpg", true},
		{"page2.png", true},
		{"page1.webp", true},
		{"notes.txt", false},
		{"Page3.PNG", true},
		{"backup.bak", false},
	}

	for _, file := range testFiles {
		f, err := os.Create(filepath.Join(tempDir, file.name))
		if err != nil {
			t.Fatalf("Failed to create test file %s: %v", file.name, err)
		}
		f.Close()
	}

	result, err := collectImages([]string{tempDir}, SortSimple)
	if err != nil {
		t.Fatalf("collectImages failed: %v", err)
	}
	want := []string{"Page3.PNG", "page1.webp", "page10.jpg", "page2.png"}
	if len(result) != len(want) {
		t.Fatalf("got %v, want %v", pathsToStrings(result), want)
	}
	for i, name := range want {
		if result[i].Name() != name {
			t.Errorf("result[%d] = %s, want %s", i, result[i].Name(), name)
		}
	}

	single := filepath.Join(tempDir, "page2.png")
	result, err = collectImages([]string{single}, SortNatural)
	if err != nil {
		t.Fatalf("collectImages with single file failed: %v", err)
	}
	if len(result) != 1 || result[0].Path != single {
		t.Errorf("Expected [%s], got %v", single, pathsToStrings(result))
	}

	if _, err := collectImages([]string{filepath.Join(tempDir, "missing")}, SortNatural); err == nil {
		t.Error("collectImages on a missing path succeeded")
	}
}

func TestCollectImagesWithArchive(t *testing.T) {
	tempDir := t.TempDir()
	writePNG(t, filepath.Join(tempDir, "cover.png"), 4, 4)
	writeZip(t, filepath.Join(tempDir, "chapter.cbz"), map[string][]byte{
		"p10.png":  pngBytes(t, 4, 4),
		"p9.png":   pngBytes(t, 4, 4),
		"info.nfo": []byte("x"),
	})
	if err := os.WriteFile(filepath.Join(tempDir, "broken.zip"), []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := collectImages([]string{tempDir}, SortNatural)
	if err != nil {
		t.Fatalf("collectImages failed: %v", err)
	}

	want := []string{"p9.png", "p10.png", "cover.png"}
	if len(result) != len(want) {
		t.Fatalf("got %v, want names %v", pathsToStrings(result), want)
	}
	for i, name := range want {
		if result[i].Name() != name {
			t.Errorf("result[%d] = %s, want %s", i, result[i].Name(), name)
		}
	}
	if result[0].ArchivePath == "" || result[0].EntryPath != "p9.png" {
		t.Errorf("archive page = %+v", result[0])
	}
}

func TestOpenDocumentSingleImage(t *testing.T) {
	tempDir := t.TempDir()
	for _, name := range []string{"01.png", "02.png", "03.png"} {
		writePNG(t, filepath.Join(tempDir, name), 2, 2)
	}

	doc, err := OpenDocument([]string{filepath.Join(tempDir, "02.png")}, SortNatural)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if doc.PageCount() != 3 {
		t.Fatalf("PageCount() = %d, want the whole directory", doc.PageCount())
	}
	if doc.OpenedAt != 1 || doc.LastReadPageIndex != 1 {
		t.Errorf("OpenedAt = %d, LastReadPageIndex = %d, want 1", doc.OpenedAt, doc.LastReadPageIndex)
	}
	if doc.Name != filepath.Base(tempDir) {
		t.Errorf("Name = %q", doc.Name)
	}
}

func TestOpenDocumentDirectory(t *testing.T) {
	tempDir := t.TempDir()
	writePNG(t, filepath.Join(tempDir, "a.png"), 2, 2)

	doc, err := OpenDocument([]string{tempDir}, SortNatural)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if doc.OpenedAt != NoPage {
		t.Errorf("OpenedAt = %d for a directory", doc.OpenedAt)
	}
	abs, _ := filepath.Abs(tempDir)
	if doc.Path != abs {
		t.Errorf("Path = %q, want %q", doc.Path, abs)
	}

	multi, err := OpenDocument([]string{tempDir, filepath.Join(tempDir, "a.png")}, SortNatural)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if multi.PageCount() != 2 || multi.Name != filepath.Base(tempDir)+" (+1)" {
		t.Errorf("multi = %d pages, name %q", multi.PageCount(), multi.Name)
	}
}

func TestDecodeBitmap(t *testing.T) {
	img, err := decodeBitmap(pngBytes(t, 12, 7), "page.png")
	if err != nil {
		t.Fatalf("decodeBitmap: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 7 {
		t.Errorf("size %v, want 12x7", b)
	}

	if _, err := decodeBitmap([]byte("garbage"), "page.jpg"); err == nil {
		t.Error("decodeBitmap accepted garbage")
	}

	missing := ImagePath{Path: filepath.Join(t.TempDir(), "gone.png")}
	if _, err := loadBitmap(missing); err == nil {
		t.Error("loadBitmap on a missing file succeeded")
	}
}

func TestErrorBitmap(t *testing.T) {
	img := errorBitmap(0, 0)
	if b := img.Bounds(); b.Dx() != errorBitmapWidth || b.Dy() != errorBitmapHeight {
		t.Errorf("default size %v", b)
	}
	if b := errorBitmap(20, 10).Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("size %v, want 20x10", b)
	}
}

// A directory or archive holding a single page is opened as itself, not as
// that page's directory
func TestOpenDocumentSinglePageContainers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "oneshot")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(dir, "only.png"), 2, 2)
	writePNG(t, filepath.Join(filepath.Dir(dir), "sibling.png"), 2, 2)

	archive := filepath.Join(t.TempDir(), "oneshot.cbz")
	writeZip(t, archive, map[string][]byte{"001.png": pngBytes(t, 2, 2)})

	for _, arg := range []string{dir, archive} {
		t.Run(filepath.Base(arg), func(t *testing.T) {
			doc, err := OpenDocument([]string{arg}, SortNatural)
			if err != nil {
				t.Fatalf("OpenDocument: %v", err)
			}
			abs, _ := filepath.Abs(arg)
			if doc.OpenedAt != NoPage || doc.LastReadPageIndex != 0 {
				t.Errorf("OpenedAt = %d, LastReadPageIndex = %d", doc.OpenedAt, doc.LastReadPageIndex)
			}
			if doc.Path != abs || doc.PageCount() != 1 {
				t.Errorf("Path = %q with %d pages, want %q with 1", doc.Path, doc.PageCount(), abs)
			}
		})
	}
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBitmapFormats(t *testing.T) {
	jpg := jpegBytes(t, 16, 8)

	tests := []struct {
		name    string
		file    string
		data    []byte
		wantW   int
		wantH   int
		wantErr bool
	}{
		{"jpeg", "page.jpg", jpg, 16, 8, false},
		{"jpeg with png extension", "page.png", jpg, 16, 8, false},
		{"png with jpeg extension", "page.jpeg", pngBytes(t, 5, 9), 5, 9, false},
		{"jpeg without frame", "page.jpg", jpg[:20], 0, 0, true},
		{"bare start marker", "page.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := decodeBitmap(tt.data, tt.file)
			if tt.wantErr {
				if err == nil {
					t.Errorf("decoded %v, want an error", img.Bounds())
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeBitmap: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("size %v, want %dx%d", b, tt.wantW, tt.wantH)
			}
		})
	}
}
