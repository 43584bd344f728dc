package roomsync

import (
	"strings"
	"sync"
)

// Draft is the message being composed. It is shared between the UI and the
// pipelines, which run on other goroutines.
type Draft struct {
	mu   sync.Mutex
	text string
}

func NewDraft(text string) *Draft {
	return &Draft{text: text}
}

func (d *Draft) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *Draft) Set(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
}

// Append adds text to the draft, separated by a space when the draft is not
// empty.
func (d *Draft) Append(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if strings.TrimSpace(d.text) == "" {
		d.text = text
		return
	}
	d.text = strings.TrimRight(d.text, " ") + " " + text
}

// clearSent empties the draft if it still holds the text that was sent, so
// edits made while the send was in flight survive.
func (d *Draft) clearSent(sent string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.text == sent {
		d.text = ""
	}
}
