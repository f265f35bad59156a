package naming

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestAllocateComposesStemSuffixAndExtension(t *testing.T) {
	out := t.TempDir()
	a := NewAllocator(false)

	cases := []struct {
		source, ext, suffix, want string
	}{
		{"/music/song.wav", "mp3", "", "song.mp3"},
		{"/music/voice.flac", "", "_mastered", "voice_mastered.flac"},
		{"/music/take.aiff", ".wav", "_modified", "take_modified.wav"},
	}
	for _, tc := range cases {
		got, err := a.Allocate(tc.source, out, tc.ext, tc.suffix)
		if err != nil {
			t.Fatalf("Allocate(%q): %v", tc.source, err)
		}
		if got.Path != filepath.Join(out, tc.want) {
			t.Errorf("Allocate(%q) = %q, want %q", tc.source, got.Path, filepath.Join(out, tc.want))
		}
	}
}

func TestAllocateDisambiguatesWithinBatch(t *testing.T) {
	out := t.TempDir()
	a := NewAllocator(false)

	sources := []string{"/a/track.wav", "/b/track.flac", "/c/track.ogg"}
	want := []string{"track.mp3", "track (1).mp3", "track (2).mp3"}
	seen := map[string]bool{}
	for i, src := range sources {
		got, err := a.Allocate(src, out, "mp3", "")
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if got.Path != filepath.Join(out, want[i]) {
			t.Fatalf("item %d: got %q want %q", i, got.Path, want[i])
		}
		if seen[got.Path] {
			t.Fatalf("duplicate destination %q", got.Path)
		}
		seen[got.Path] = true
	}
}

func TestAllocateSkipsFilesOnDiskUnderscoreStyle(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "name.ext"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := NewAllocator(false, WithStyle(StyleUnderscore)).Allocate("/in/name.wav", out, "ext", "")
	if err != nil {
		t.Fatal(err)
	}
	if first.Path != filepath.Join(out, "name_1.ext") {
		t.Fatalf("got %q, want name_1.ext", first.Path)
	}
	if err := os.WriteFile(first.Path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := NewAllocator(false, WithStyle(StyleUnderscore)).Allocate("/in/name.wav", out, "ext", "")
	if err != nil {
		t.Fatal(err)
	}
	if second.Path != filepath.Join(out, "name_2.ext") {
		t.Fatalf("got %q, want name_2.ext", second.Path)
	}
}

func TestAllocateOverwriteSkipsSearchAndReportsCollision(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "song.mp3"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	a := NewAllocator(true)

	first, err := a.Allocate("/a/song.wav", out, "mp3", "")
	if err != nil {
		t.Fatal(err)
	}
	if first.Path != filepath.Join(out, "song.mp3") || first.Collided {
		t.Fatalf("unexpected first allocation: %+v", first)
	}

	second, err := a.Allocate("/b/song.flac", out, "mp3", "")
	if err != nil {
		t.Fatal(err)
	}
	if second.Path != first.Path || !second.Collided || second.PreviousOwner != "/a/song.wav" {
		t.Fatalf("expected accepted collision, got %+v", second)
	}
}

func TestAllocateConcurrentCallsStayDistinct(t *testing.T) {
	out := t.TempDir()
	a := NewAllocator(false, WithExistsFunc(func(string) bool { return false }))

	const workers = 32
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := a.Allocate("/in/same.wav", out, "mp3", "")
			if err != nil {
				t.Errorf("Allocate: %v", err)
				return
			}
			results[i] = got.Path
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, path := range results {
		if seen[path] {
			t.Fatalf("duplicate destination %q", path)
		}
		seen[path] = true
	}
	if a.Allocated() != workers {
		t.Fatalf("expected %d allocations, got %d", workers, a.Allocated())
	}
}

func TestAllocateRejectsEmptySource(t *testing.T) {
	if _, err := NewAllocator(false).Allocate(" ", t.TempDir(), "mp3", ""); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestParseStyle(t *testing.T) {
	if ParseStyle("Underscore") != StyleUnderscore {
		t.Fatal("expected underscore style")
	}
	if ParseStyle("paren") != StyleParen || ParseStyle("") != StyleParen {
		t.Fatal("expected paren style fallback")
	}
}
