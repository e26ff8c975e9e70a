// Package contentkey derives content-addressed cache keys.
//
// A key is the hex SHA-256 of a model tag, a NUL byte and the content. The tag
// names the provider and model that produced the cached artifact, so switching
// models never serves an entry computed by another one.
package contentkey

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
)

// Size is the length of a key in hex characters.
const Size = sha256.Size * 2

// Key is a content-addressed cache key.
type Key string

func (k Key) String() string { return string(k) }

// Short returns the first 12 characters, for logs.
func (k Key) Short() string {
	if len(k) < 12 {
		return string(k)
	}
	return string(k[:12])
}

// ForText returns the key of a whole document under tag.
func ForText(tag, text string) Key {
	h := begin(tag)
	h.Write([]byte(text))
	return finish(h)
}

// ForChunks returns the key of an ordered chunk set under tag. Each text is
// length-prefixed so that ["ab","c"] and ["a","bc"] hash differently.
func ForChunks(tag string, texts []string) Key {
	h := begin(tag)
	var buf []byte
	for _, t := range texts {
		buf = strconv.AppendInt(buf[:0], int64(len(t)), 10)
		buf = append(buf, ':')
		h.Write(buf)
		h.Write([]byte(t))
	}
	return finish(h)
}

// Valid reports whether s looks like a key.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func begin(tag string) hash.Hash {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write([]byte{0})
	return h
}

func finish(h hash.Hash) Key {
	return Key(hex.EncodeToString(h.Sum(nil)))
}
