package mcrelay

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// cfb8 implements AES-128 in CFB-8 (8-bit segment) mode: the cipher.Stream
// interfaces in the standard library only offer full-block-size CFB, so this
// hand-rolls the 1-byte-at-a-time feedback register the way the reference
// implementation's crypto crate does, using crypto/aes's block cipher as the
// only primitive.
type cfb8 struct {
	block    cipher.Block
	register []byte // len == block.BlockSize(), shifts one byte per step
	decrypt  bool
	scratch  []byte
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) (*cfb8, error) {
	bs := block.BlockSize()
	if len(iv) != bs {
		return nil, fmt.Errorf("mcrelay: cfb8 iv must be %d bytes, got %d", bs, len(iv))
	}
	reg := make([]byte, bs)
	copy(reg, iv)
	return &cfb8{
		block:    block,
		register: reg,
		decrypt:  decrypt,
		scratch:  make([]byte, bs),
	}, nil
}

// XORKeyStream encrypts or decrypts src into dst one byte at a time. dst and
// src may overlap exactly as with cipher.Stream.
func (c *cfb8) XORKeyStream(dst, src []byte) {
	bs := len(c.register)
	for i := range src {
		c.block.Encrypt(c.scratch, c.register)
		cipherByte := src[i] ^ c.scratch[0]

		var feedback byte
		if c.decrypt {
			feedback = src[i]
		} else {
			feedback = cipherByte
		}

		copy(c.register, c.register[1:bs])
		c.register[bs-1] = feedback

		dst[i] = cipherByte
	}
}

// StreamPair bundles the independent encrypt and decrypt streams negotiated
// for one connection. Key and IV are both the 16-byte shared secret per the
// protocol's encryption handshake.
type StreamPair struct {
	Encrypt *cfb8
	Decrypt *cfb8
}

// NewStreamPair builds the encrypt/decrypt CFB-8 stream pair from a 16-byte
// AES-128 shared secret, used as both key and IV.
func NewStreamPair(sharedSecret []byte) (*StreamPair, error) {
	if len(sharedSecret) != 16 {
		return nil, fmt.Errorf("mcrelay: shared secret must be 16 bytes, got %d", len(sharedSecret))
	}
	block, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, err
	}
	enc, err := newCFB8(block, sharedSecret, false)
	if err != nil {
		return nil, err
	}
	dec, err := newCFB8(block, sharedSecret, true)
	if err != nil {
		return nil, err
	}
	return &StreamPair{Encrypt: enc, Decrypt: dec}, nil
}
