// Package clitest runs printwatch commands in-process.
package clitest

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/coder/serpent"

	"github.com/printwatch/printwatch/cli"
)

// New creates an invocation of the root command with args. Its standard
// streams write to the test log; use Capture to read stdout instead.
func New(t testing.TB, args ...string) *serpent.Invocation {
	var root cli.RootCmd
	inv := root.Command().Invoke(args...)
	inv.Environ = serpent.Environ{}
	inv.Stdin = strings.NewReader("")
	inv.Stdout = &logWriter{prefix: "stdout", t: t}
	inv.Stderr = &logWriter{prefix: "stderr", t: t}
	return inv
}

// Capture redirects the invocation's stdout into the returned buffer.
func Capture(inv *serpent.Invocation) *SyncBuffer {
	buf := &SyncBuffer{}
	inv.Stdout = buf
	return buf
}

// Start runs the invocation in the background. The returned channel yields
// the command's error once it exits. The invocation is canceled when the
// test ends.
func Start(ctx context.Context, t testing.TB, inv *serpent.Invocation) <-chan error {
	ctx, cancel := context.WithCancel(ctx)
	errC := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		errC <- inv.WithContext(ctx).Run()
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return errC
}

// SyncBuffer is a bytes.Buffer safe for a concurrent writer and reader.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type logWriter struct {
	prefix string
	t      testing.TB
}

func (l *logWriter) Write(p []byte) (int, error) {
	trimmed := strings.TrimRight(string(p), "\n")
	if trimmed != "" {
		l.t.Logf("%s: %s", l.prefix, trimmed)
	}
	return len(p), nil
}

var _ io.Writer = (*logWriter)(nil)
