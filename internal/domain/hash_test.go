package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"signet/internal/domain"
)

func TestContentDigest(t *testing.T) {
	// Known SHA-256 vectors, lowercase hex.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		domain.ContentDigest(nil))
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		domain.ContentDigest([]byte("abc")))

	// Same bytes, same digest; different bytes, different digest.
	a := domain.ContentDigest([]byte("%PDF-1.4 lease agreement"))
	b := domain.ContentDigest([]byte("%PDF-1.4 lease agreement"))
	c := domain.ContentDigest([]byte("%PDF-1.4 lease agreement v2"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
