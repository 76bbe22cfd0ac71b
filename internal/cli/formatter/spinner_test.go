package formatter

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

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

func TestSpinner_DrawsAndClears(t *testing.T) {
	var w syncBuffer
	stop := StartSpinner(&w, "Applying 2 changes")
	stop()
	stop()

	out := stripANSI(w.String())
	assert.Contains(t, out, "Applying 2 changes")
	assert.Contains(t, out, spinnerFrames[0])
	assert.Contains(t, w.String(), "\r\033[K")
}

func TestSpinner_SetMessageRedraws(t *testing.T) {
	var w syncBuffer
	s := NewSpinner(&w, "Applying move")
	s.interval = time.Millisecond
	s.Start()

	s.SetMessage("Applying move · manpower:m2")
	assert.Eventually(t, func() bool {
		return strings.Contains(stripANSI(w.String()), "manpower:m2")
	}, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Contains(t, stripANSI(w.String()), "Applying move")
}
