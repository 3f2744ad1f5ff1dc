package primitives

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
)

// Encrypt performs AES-256-CBC encryption with PKCS#7 padding.
func Encrypt(key [32]byte, iv [16]byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// Decrypt performs AES-256-CBC decryption, failing with ErrDecrypt on a
// malformed length or bad padding rather than leaking why.
func Decrypt(key [32]byte, iv [16]byte, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, ErrDecrypt
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, ErrDecrypt
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > n || padLen > aes.BlockSize {
		return nil, ErrDecrypt
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, ErrDecrypt
		}
	}
	return data[:n-padLen], nil
}
