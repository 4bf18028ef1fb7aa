package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the watch goroutine and the
// test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

const watchSpec = `
package test

app: counter: {
	template: "(p count)"
	state: count: %d
}
`

func writeCounterSpec(t *testing.T, dir string, count int) {
	t.Helper()
	src := fmt.Sprintf(watchSpec, count)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apps.cue"), []byte(src), 0644))
}

func startWatch(t *testing.T, dir string) (*syncBuffer, context.CancelFunc, <-chan error) {
	t.Helper()
	return startWatchFormat(t, dir, "text")
}

func startWatchFormat(t *testing.T, dir, format string) (*syncBuffer, context.CancelFunc, <-chan error) {
	t.Helper()
	out := &syncBuffer{}
	cmd := NewWatchCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&syncBuffer{})
	cmd.SetArgs([]string{dir, "counter", "--debounce", "20ms"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()
	t.Cleanup(cancel)
	return out, cancel, done
}

func TestWatchRerendersOnChange(t *testing.T) {
	dir := t.TempDir()
	writeCounterSpec(t, dir, 0)

	out, cancel, done := startWatch(t, dir)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "--- counter (render 1)\n<p>0</p>")
	}, 5*time.Second, 10*time.Millisecond)

	writeCounterSpec(t, dir, 7)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "<p>7</p>")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchKeepsRunningAfterBrokenSpec(t *testing.T) {
	dir := t.TempDir()
	writeCounterSpec(t, dir, 1)

	out, cancel, done := startWatch(t, dir)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "<p>1</p>")
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "apps.cue"), []byte("package test\n\napp: counter: {\n"), 0644))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Error [")
	}, 5*time.Second, 10*time.Millisecond)

	writeCounterSpec(t, dir, 2)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "<p>2</p>")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchJSONMountsAfreshOnEachReload(t *testing.T) {
	dir := t.TempDir()
	writeCounterSpec(t, dir, 3)

	out, cancel, done := startWatchFormat(t, dir, "json")

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"html":"\u003cp\u003e3\u003c/p\u003e"`)
	}, 5*time.Second, 10*time.Millisecond)

	writeCounterSpec(t, dir, 4)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `\u003cp\u003e4\u003c/p\u003e`)
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	var renders []RenderOutput
	dec := json.NewDecoder(strings.NewReader(out.String()))
	for dec.More() {
		var resp struct {
			Status string       `json:"status"`
			Data   RenderOutput `json:"data"`
		}
		require.NoError(t, dec.Decode(&resp))
		require.Equal(t, "ok", resp.Status)
		renders = append(renders, resp.Data)
	}
	require.GreaterOrEqual(t, len(renders), 2)
	first, last := renders[0], renders[len(renders)-1]
	assert.Equal(t, "<p>3</p>", first.HTML)
	assert.Equal(t, "<p>4</p>", last.HTML)
	assert.NotEqual(t, first.MountID, last.MountID)
}

func TestWatchMissingDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent"), "counter"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeReadFailed)
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "apps.cue", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "counter.lisp", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "counter.lisp", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "apps.cue", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "apps.cue", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "apps.cue.swp", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.ev.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev))
		})
	}
}
