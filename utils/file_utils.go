package utils

import (
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

// ParseKeyFile loads the private key stored at fPath. When createNewKey is set
// a fresh key is generated and saved there instead.
func ParseKeyFile(fPath string, createNewKey bool) (*btcec.PrivateKey, error) {
	if fPath == "" {
		return nil, errors.New("file path is missing")
	}
	if createNewKey {
		sk, _, err := GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		if err := SavePrivateKeyToFile(sk, fPath); err != nil {
			return nil, err
		}
		return sk, nil
	}
	return ReadKeyFromFPath(fPath)
}

func SavePrivateKeyToFile(sk *btcec.PrivateKey, fPath string) error {
	data := BytesToHex(PrivateKeyToBytes(sk)) + "\n"
	if err := os.WriteFile(fPath, []byte(data), 0600); err != nil {
		return errors.Wrapf(err, "failed to save key in %s", fPath)
	}
	return nil
}

func ReadKeyFromFPath(fPath string) (*btcec.PrivateKey, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read key from %s", fPath)
	}
	content := strings.TrimSpace(string(fileContent))
	if content == "" {
		return nil, errors.Errorf("key file %s is empty", fPath)
	}
	b, err := HexToBytes(content)
	if err != nil {
		return nil, errors.Wrapf(err, "key file %s is not hex", fPath)
	}
	return BytesToPrivateKey(b)
}
