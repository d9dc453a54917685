package eventlog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingFile is an append-only log file rotated at local midnight.
type RotatingFile struct {
	lj   *lumberjack.Logger
	now  func() time.Time
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// OpenRotating opens path for appending and keeps backups rotated files.
func OpenRotating(path string, backups int) (*RotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f := &RotatingFile{
		lj: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    1024, // megabytes; rotation is time-driven
			MaxBackups: backups,
			LocalTime:  true,
		},
		now:  time.Now,
		stop: make(chan struct{}),
	}

	f.wg.Add(1)
	go f.rotateDaily()
	return f, nil
}

func (f *RotatingFile) Write(p []byte) (int, error) {
	return f.lj.Write(p)
}

// Rotate closes the current file and starts a new one.
func (f *RotatingFile) Rotate() error {
	return f.lj.Rotate()
}

// Close stops the rotation loop and closes the file.
func (f *RotatingFile) Close() error {
	f.once.Do(func() { close(f.stop) })
	f.wg.Wait()
	return f.lj.Close()
}

func (f *RotatingFile) rotateDaily() {
	defer f.wg.Done()

	for {
		timer := time.NewTimer(UntilMidnight(f.now()))
		select {
		case <-f.stop:
			timer.Stop()
			return
		case <-timer.C:
			_ = f.lj.Rotate()
		}
	}
}

// UntilMidnight returns the time left until the next local midnight after t.
func UntilMidnight(t time.Time) time.Duration {
	y, m, d := t.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return next.Sub(t)
}
