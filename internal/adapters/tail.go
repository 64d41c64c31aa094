package adapters

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// defaultDebounce batches rapid successive writes into one re-read.
const defaultDebounce = 100 * time.Millisecond

// tailer follows an append-only file, delivering each complete line to a
// callback. It tracks only a byte offset, never holds a lock on the
// file, and tolerates the file being replaced or truncated (offset
// resets to zero).
type tailer struct {
	path     string
	debounce time.Duration
	onLine   func([]byte)
	log      zerolog.Logger

	watcher *fsnotify.Watcher
	offset  int64
	partial []byte

	stopped atomic.Bool
	done    chan struct{}
}

func newTailer(path string, onLine func([]byte), log zerolog.Logger) *tailer {
	return &tailer{
		path:     path,
		debounce: defaultDebounce,
		onLine:   onLine,
		log:      log,
		done:     make(chan struct{}),
	}
}

// start replays the existing file from offset zero, then watches the
// parent directory for further writes. The up-front replay closes the
// race with entries written before the watcher attached.
func (t *tailer) start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("create watch dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	t.watcher = watcher

	t.offset = 0
	t.partial = nil
	t.readNew()

	go t.run()
	return nil
}

// stop closes the watcher handle and waits for the loop to exit.
func (t *tailer) stop() {
	if t.stopped.Swap(true) {
		return
	}
	if t.watcher != nil {
		_ = t.watcher.Close()
	}
	<-t.done
}

func (t *tailer) run() {
	defer close(t.done)

	target := filepath.Base(t.path)
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(t.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(t.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			t.readNew()

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.log.Warn().Err(err).Str("path", t.path).Msg("watcher error")
		}
	}
}

// readNew consumes everything past the current offset and delivers each
// complete line. An incomplete trailing line stays buffered until the
// writer finishes it.
func (t *tailer) readNew() {
	if t.stopped.Load() {
		return
	}

	f, err := os.Open(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.log.Warn().Err(err).Str("path", t.path).Msg("open for tail failed")
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.log.Warn().Err(err).Str("path", t.path).Msg("stat failed")
		return
	}
	if info.Size() < t.offset {
		// File was rewritten from scratch; start over.
		t.log.Info().Str("path", t.path).Msg("log truncated, resetting offset")
		t.offset = 0
		t.partial = nil
	}

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		t.log.Warn().Err(err).Str("path", t.path).Msg("seek failed")
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		t.log.Warn().Err(err).Str("path", t.path).Msg("read failed")
		return
	}
	t.offset += int64(len(data))

	buf := append(t.partial, data...)
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		line := buf[:idx]
		buf = buf[idx+1:]
		if t.stopped.Load() {
			// Stop raced a read; discard the rest.
			t.partial = nil
			return
		}
		if len(bytes.TrimSpace(line)) > 0 {
			t.onLine(line)
		}
	}
	t.partial = append([]byte(nil), buf...)
}
