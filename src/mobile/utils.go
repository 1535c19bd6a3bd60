package mobile

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/waggleworks/waggle/src/crypto/keys"
)

// GetPrivPublKeys creates a new key pair and returns both halves in a single
// string of the form <public key hex>=!@#@!=<private key hex>.
func GetPrivPublKeys() string {
	key, err := keys.GenerateECDSAKey()
	if err != nil {
		fmt.Println("Error generating new key")
		os.Exit(2)
	}

	priv := keys.PrivateKeyHex(key)
	pub := keys.PublicKeyHex(&key.PublicKey)

	return pub + "=!@#@!=" + priv
}

// GetPublKey derives the public key corresponding to privKey. It returns an
// empty string when privKey does not parse.
func GetPublKey(privKey string) string {
	trimmedKeyString := strings.TrimSpace(privKey)

	key, err := hex.DecodeString(trimmedKeyString)
	if err != nil {
		return ""
	}

	privateKey, err := keys.ParsePrivateKey(key)
	if err != nil {
		return ""
	}

	return keys.PublicKeyHex(&privateKey.PublicKey)
}
