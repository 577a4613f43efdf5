package main

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeClock runs AfterFunc callbacks only when the test advances it
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves the clock forward, firing due timers in deadline order
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.fn()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// drainUntil pumps the dispatcher until cond holds
func drainUntil(t *testing.T, d *Dispatcher, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		d.Drain()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not reached before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// testImage is a bound resource of a fixed size
type testImage struct {
	bounds image.Rectangle
}

func (i *testImage) Bounds() image.Rectangle {
	return i.bounds
}

// testBinder binds bitmaps to testImages. A set gate holds every Bind until
// the gate is closed or the load is canceled.
type testBinder struct {
	mu       sync.Mutex
	gate     chan struct{}
	fail     error
	bound    int
	released int
}

func (b *testBinder) setGate(gate chan struct{}) {
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()
}

func (b *testBinder) setFail(err error) {
	b.mu.Lock()
	b.fail = err
	b.mu.Unlock()
}

func (b *testBinder) Bind(ctx context.Context, bitmap image.Image) (Presentable, error) {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return nil, b.fail
	}
	b.bound++
	return &testImage{bounds: bitmap.Bounds()}, nil
}

func (b *testBinder) Release(Presentable) {
	b.mu.Lock()
	b.released++
	b.mu.Unlock()
}

func (b *testBinder) counts() (bound, released int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound, b.released
}

// fakeSource is an in-memory PageSource. Pages start materialized or not;
// materialize fills one in and notifies listeners like a decode worker would.
type fakeSource struct {
	mu        sync.Mutex
	pages     []Page
	requests  []Window
	listeners []func(start, count int)
	width     int
	height    int
}

func newFakeSource(n int, materialized bool) *fakeSource {
	s := &fakeSource{width: 2000, height: 1000}
	for i := 0; i < n; i++ {
		p := Page{Index: i, Name: "page" + strconv.Itoa(i+1) + ".png"}
		if materialized {
			p.Bitmap = s.bitmap()
		}
		s.pages = append(s.pages, p)
	}
	return s
}

func (s *fakeSource) bitmap() image.Image {
	return image.NewRGBA(image.Rect(0, 0, s.width, s.height))
}

func (s *fakeSource) SetDataSource(*Document) {}

func (s *fakeSource) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

func (s *fakeSource) Page(idx int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.pages) {
		return Page{Index: idx}
	}
	return s.pages[idx]
}

func (s *fakeSource) RangesChanged(primary Range, all []Range) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := Window{Primary: primary}
	for _, r := range all[1:] {
		if r.Start > primary.Start {
			w.Following = r
		} else {
			w.Preceding = r
		}
	}
	s.requests = append(s.requests, w)
}

func (s *fakeSource) OnRangeReplaced(fn func(start, count int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *fakeSource) Close() {}

func (s *fakeSource) materialize(idx int) {
	s.mu.Lock()
	s.pages[idx].Bitmap = s.bitmap()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(idx, 1)
	}
}

func (s *fakeSource) lastRequest() (Window, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Window{}, 0
	}
	return s.requests[len(s.requests)-1], len(s.requests)
}

func testDocument(n int) *Document {
	doc := &Document{Name: "test", Path: "/books/test", OpenedAt: NoPage}
	for i := 0; i < n; i++ {
		name := "page" + strconv.Itoa(i+1) + ".png"
		doc.Pages = append(doc.Pages, ImagePath{Path: filepath.Join("/books/test", name)})
	}
	return doc
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.WriteFile(path, pngBytes(t, w, h), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeZip creates an archive with the given entries, written in name order
func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func pathsToStrings(paths []ImagePath) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = p.Path
	}
	return names
}
