/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package cryptutil seals and unseals small opaque tokens (ACL bearer
// tokens, SD registry secrets at rest) on top of the encoding/aes and
// encoding/hexa packages rather than raw crypto/aes + encoding/hex calls,
// keeping this ambient concern on the same coder abstraction the teacher
// uses for every other encoding surface.
package cryptutil

import (
	encaes "github.com/nabbar/netctl/encoding/aes"
	enchex "github.com/nabbar/netctl/encoding/hexa"
)

// Sealer seals and opens opaque byte payloads under one AES-256-GCM key,
// rendering the ciphertext as a hex string for embedding in config files
// or HTTP headers.
type Sealer struct {
	key [32]byte
}

// NewSealer builds a Sealer from a 32-byte key, typically decoded from a
// hex-encoded config value via ParseKey.
func NewSealer(key [32]byte) *Sealer {
	return &Sealer{key: key}
}

// GenerateKey returns a fresh random 256-bit key plus its hex encoding,
// for operators provisioning a new controller instance's ACL token seal.
func GenerateKey() (key [32]byte, hexKey string, err error) {
	key, err = encaes.GenKey()
	if err != nil {
		return key, "", err
	}
	return key, string(enchex.New().Encode(key[:])), nil
}

// ParseKey decodes a hex-encoded key previously produced by GenerateKey.
func ParseKey(hexKey string) (key [32]byte, err error) {
	raw, err := enchex.New().Decode([]byte(hexKey))
	if err != nil {
		return key, err
	}
	if len(raw) != len(key) {
		return key, ErrBadKeyLength
	}
	copy(key[:], raw)
	return key, nil
}

// Seal encrypts plaintext under s's key with a fresh random nonce, and
// returns the result as a hex string with the nonce prepended.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	nonce, err := encaes.GenNonce()
	if err != nil {
		return "", err
	}

	coder, err := encaes.New(s.key, nonce)
	if err != nil {
		return "", err
	}
	defer coder.Reset()

	ciphertext := coder.Encode(plaintext)
	out := append(nonce[:], ciphertext...)
	return string(enchex.New().Encode(out)), nil
}

// Open reverses Seal, returning the original plaintext.
func (s *Sealer) Open(sealed string) ([]byte, error) {
	raw, err := enchex.New().Decode([]byte(sealed))
	if err != nil {
		return nil, err
	}
	if len(raw) < 12 {
		return nil, ErrShortCiphertext
	}

	var nonce [12]byte
	copy(nonce[:], raw[:12])

	coder, err := encaes.New(s.key, nonce)
	if err != nil {
		return nil, err
	}
	defer coder.Reset()

	return coder.Decode(raw[12:])
}

type cryptError string

func (e cryptError) Error() string { return string(e) }

const (
	ErrBadKeyLength    = cryptError("cryptutil: decoded key is not 32 bytes")
	ErrShortCiphertext = cryptError("cryptutil: sealed value shorter than one nonce")
)
