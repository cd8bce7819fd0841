package encode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/musicweb/internal/catalog"
)

type recordingRunner struct {
	mu   sync.Mutex
	cmds []Command
	fail error
}

func (r *recordingRunner) Run(_ context.Context, cmd Command) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	return Result{}, r.fail
}

func TestFFmpeg_Transcode(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"02 Two.flac", "01 One.FLAC", "cover.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("x"), 0o644))
	}
	out := t.TempDir()

	cat := catalog.Default()
	v0, ok := cat.Lookup("v0")
	require.True(t, ok)

	runner := &recordingRunner{}
	ff := NewFFmpeg("", runner, cat.Reference())
	require.NoError(t, ff.Transcode(context.Background(), src, nil, v0, out))

	require.Len(t, runner.cmds, 2)
	first := runner.cmds[0]
	assert.Equal(t, "ffmpeg", first.Name)
	assert.Contains(t, first.Args, filepath.Join(src, "01 One.FLAC"))
	assert.Equal(t, filepath.Join(out, "01 One.mp3"), first.Args[len(first.Args)-1])
	assert.Contains(t, first.Args, "libmp3lame")
	assert.Equal(t, filepath.Join(out, "02 Two.mp3"), runner.cmds[1].Args[len(runner.cmds[1].Args)-1])
}

func TestFFmpeg_TranscodeNamedFiles(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"01 One.flac", "02 Broken.flac", "03 Three.flac"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("x"), 0o644))
	}
	out := t.TempDir()
	cat := catalog.Default()
	v2, _ := cat.Lookup("v2")

	runner := &recordingRunner{}
	err := NewFFmpeg("", runner, cat.Reference()).Transcode(context.Background(), src, []string{"01 One.flac", "03 Three.flac"}, v2, out)
	require.NoError(t, err)

	require.Len(t, runner.cmds, 2)
	assert.Contains(t, runner.cmds[0].Args, filepath.Join(src, "01 One.flac"))
	assert.Contains(t, runner.cmds[1].Args, filepath.Join(src, "03 Three.flac"))
}

func TestFFmpeg_TranscodeFailure(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "01.flac"), []byte("x"), 0o644))

	boom := errors.New("boom")
	runner := &recordingRunner{fail: boom}
	cat := catalog.Default()
	aac, _ := cat.Lookup("aac")

	err := NewFFmpeg("ffmpeg", runner, cat.Reference()).Transcode(context.Background(), src, nil, aac, t.TempDir())
	assert.ErrorIs(t, err, boom)
}

func TestFFmpeg_NoInputs(t *testing.T) {
	cat := catalog.Default()
	v2, _ := cat.Lookup("v2")
	err := NewFFmpeg("ffmpeg", &recordingRunner{}, cat.Reference()).Transcode(context.Background(), t.TempDir(), nil, v2, t.TempDir())
	assert.Error(t, err)
}

func TestZip_Archive(t *testing.T) {
	runner := &recordingRunner{}
	dir := t.TempDir()
	archive := filepath.Join(dir, "album-v0.zip")

	require.NoError(t, NewZip("", runner).Archive(context.Background(), filepath.Join(dir, "v0"), archive))
	require.Len(t, runner.cmds, 1)
	assert.Equal(t, "zip", runner.cmds[0].Name)
	assert.Equal(t, filepath.Join(dir, "v0"), runner.cmds[0].Dir)
	assert.Contains(t, runner.cmds[0].Args, archive)
}

func TestExecRunner_CommandError(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo nope; exit 3"}})

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Output, "nope")
	assert.Contains(t, cmdErr.Error(), "sh -c")
}

func TestExecRunner_Success(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo ok"}})
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(res.Output))
}

type slowRunner struct {
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (r *slowRunner) Run(context.Context, Command) (Result, error) {
	n := r.active.Add(1)
	for {
		m := r.maxSeen.Load()
		if n <= m || r.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	r.active.Add(-1)
	return Result{}, nil
}

func TestLimited_BoundsConcurrency(t *testing.T) {
	inner := &slowRunner{}
	limited := NewLimited(inner, 2)
	assert.Equal(t, 2, limited.Size())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = limited.Run(context.Background(), Command{Name: "x"})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.maxSeen.Load(), int32(2))
}

func TestLimited_CancelledContext(t *testing.T) {
	limited := NewLimited(&recordingRunner{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Acquire on a cancelled context may still succeed when a slot is free,
	// so hold the only slot first.
	require.NoError(t, limited.sem.Acquire(context.Background(), 1))
	defer limited.sem.Release(1)

	_, err := limited.Run(ctx, Command{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	require.NoError(t, os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	})
	require.Len(t, results, 3)

	assert.True(t, results[0].Available)
	assert.False(t, results[1].Available)
	assert.NotEmpty(t, results[1].Detail)
	assert.Equal(t, "command not configured", results[2].Detail)

	missing := Missing(results)
	require.Len(t, missing, 1)
	assert.Equal(t, "Missing", missing[0].Name)
}

func TestRequirements(t *testing.T) {
	reqs := Requirements("ffmpeg", "zip", false)
	require.Len(t, reqs, 2)
	assert.True(t, reqs[0].Optional)
	assert.False(t, reqs[1].Optional)

	assert.False(t, Requirements("ffmpeg", "zip", true)[0].Optional)
}
