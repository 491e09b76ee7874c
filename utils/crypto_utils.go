package utils

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
)

// GenerateKeyPair generates a new secp256k1 key pair.
func GenerateKeyPair() (*btcec.PrivateKey, *btcec.PublicKey, error) {
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, errors.Wrap(err, "generate private key")
	}
	return sk, sk.PubKey(), nil
}

// PrivateKeyToBytes private key to bytes
func PrivateKeyToBytes(sk *btcec.PrivateKey) []byte {
	return sk.Serialize()
}

// BytesToPrivateKey bytes to private key
func BytesToPrivateKey(b []byte) (*btcec.PrivateKey, error) {
	if len(b) != btcec.PrivKeyBytesLen {
		return nil, errors.Errorf("private key must be %d bytes, got %d", btcec.PrivKeyBytesLen, len(b))
	}
	sk, _ := btcec.PrivKeyFromBytes(b)
	return sk, nil
}

// PublicKeyToAddress encodes a public key as an address, the hex of its compressed form.
func PublicKeyToAddress(pk *btcec.PublicKey) string {
	return BytesToHex(pk.SerializeCompressed())
}

// AddressToPublicKey parses an address back into a public key.
func AddressToPublicKey(address string) (*btcec.PublicKey, error) {
	b, err := HexToBytes(address)
	if err != nil {
		return nil, errors.Wrap(err, "address is not hex")
	}
	pk, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, errors.Wrap(err, "address is not a public key")
	}
	return pk, nil
}

// Hash message using SHA256
func SHA256(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	return digest[:]
}

// Sign a message's SHA256 digest with provided private key.
func Sign(msg []byte, sk *btcec.PrivateKey) []byte {
	return ecdsa.Sign(sk, SHA256(msg)).Serialize()
}

// Verify the given signature matches the message.
func Verify(msg []byte, pk *btcec.PublicKey, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(SHA256(msg), pk)
}
