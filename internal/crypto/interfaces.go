package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/cipher_codec_mock.go -package=mock

// CipherCodec encrypts clip text before it leaves the device and decrypts it
// before any comparison or UI exposure.
//
// Encryption is deterministic for a given passphrase: the same plaintext
// always yields the same ciphertext, so ciphertext equality can be used as
// clip identity across devices sharing the passphrase.
type CipherCodec interface {
	// Encrypt seals plaintext with a key derived from passphrase and returns
	// base64(nonce || ciphertext).
	Encrypt(plaintext, passphrase string) (string, error)

	// Decrypt opens a value produced by Encrypt. It returns an error wrapping
	// [ErrDecrypt] when the passphrase is wrong or the payload was tampered
	// with or is not valid base64.
	Decrypt(ciphertext, passphrase string) (string, error)
}
