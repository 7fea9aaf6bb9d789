// ABOUTME: Codec for the structured parameter blob stored in msgs/jobs/chats/contacts rows
// ABOUTME: Single-letter keys, one key=value per line, $BLOBDIR/ prefix for blob references

package param

import (
	"sort"
	"strings"
)

// Key identifies one parameter inside a param blob.
type Key byte

const (
	// File is a blob file attached to a message or job.
	File Key = 'f'
	// ProfileImage is the avatar blob of a chat or contact.
	ProfileImage Key = 'i'
	// MimeType of an attached file.
	MimeType Key = 'm'
	// Width of an attached image or video.
	Width Key = 'w'
	// Height of an attached image or video.
	Height Key = 'h'
	// Duration of an attached audio or video, in milliseconds.
	Duration Key = 'd'
)

// BlobDirPrefix marks a parameter value as a reference into the account's
// blob directory; the remainder is the bare filename.
const BlobDirPrefix = "$BLOBDIR/"

// Params holds the decoded parameters of one row.
type Params struct {
	inner map[Key]string
}

// Parse decodes a param blob. Malformed lines are skipped; a row with a
// damaged param blob must still be readable.
func Parse(s string) Params {
	p := Params{inner: make(map[Key]string)}
	for _, line := range strings.Split(s, "\n") {
		if len(line) < 2 || line[1] != '=' {
			continue
		}
		p.inner[Key(line[0])] = line[2:]
	}
	return p
}

// New returns an empty parameter set.
func New() Params {
	return Params{inner: make(map[Key]string)}
}

// Get returns the value for key, with found=false when absent.
func (p Params) Get(key Key) (string, bool) {
	v, ok := p.inner[key]
	return v, ok
}

// Set stores a value for key.
func (p Params) Set(key Key, value string) {
	p.inner[key] = value
}

// Delete removes a key.
func (p Params) Delete(key Key) {
	delete(p.inner, key)
}

// String encodes the parameters back into blob form. Keys are emitted in a
// stable order so encoded blobs compare equal.
func (p Params) String() string {
	keys := make([]Key, 0, len(p.inner))
	for k := range p.inner {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte(byte(k))
		b.WriteByte('=')
		b.WriteString(p.inner[k])
	}
	return b.String()
}
