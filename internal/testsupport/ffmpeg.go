package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeFFmpeg copies its input to the last argument so batches produce real
// output files. FAKE_FFMPEG_FAIL makes every run exit 1 with a stderr line.
const fakeFFmpeg = `#!/bin/sh
if [ -n "$FAKE_FFMPEG_FAIL" ]; then
  echo "fake ffmpeg failure" >&2
  exit 1
fi
in=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then
    in="$arg"
  fi
  prev="$arg"
  out="$arg"
done
echo "size=       0kB time=00:00:01.00 bitrate=N/A speed=1x" >&2
if [ -n "$in" ] && [ -f "$in" ]; then
  cp "$in" "$out"
else
  : > "$out"
fi
exit 0
`

// WriteFakeFFmpeg writes the fake ffmpeg script into dir and returns its path.
func WriteFakeFFmpeg(t testing.TB, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	target := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(target, []byte(fakeFFmpeg), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return target
}
