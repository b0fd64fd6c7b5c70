package model

import "sync"

// DocumentContext holds at most one extracted text blob for a session.
// Setting a new document replaces the previous one unconditionally
// (last-write-wins); there is no merging of multiple documents.
type DocumentContext struct {
	mu   sync.RWMutex
	text string
	set  bool
}

// Set stores the extracted text, replacing whatever was there before.
// No size or content validation happens here.
func (d *DocumentContext) Set(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.set = true
}

// Get returns the stored text and whether a document has been loaded.
func (d *DocumentContext) Get() (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text, d.set
}
