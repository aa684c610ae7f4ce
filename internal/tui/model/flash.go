package model

import (
	"sync"
	"time"
)

// flashTTL is how long a notice stays on the status bar before it
// clears itself.
const flashTTL = 5 * time.Second

// Flash is the status bar's transient notice line. Send and refresh
// failures post here; each new notice replaces the previous one.
type Flash struct {
	mu       sync.Mutex
	text     string
	isError  bool
	deadline time.Time
}

// Error posts a failure notice.
func (f *Flash) Error(text string) {
	f.post(text, true)
}

// Info posts a neutral notice.
func (f *Flash) Info(text string) {
	f.post(text, false)
}

func (f *Flash) post(text string, isError bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.isError = isError
	f.deadline = time.Now().Add(flashTTL)
}

// Active returns the current notice and whether it is an error. An
// expired notice reads as empty.
func (f *Flash) Active() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Now().After(f.deadline) {
		return "", false
	}
	return f.text, f.isError
}
