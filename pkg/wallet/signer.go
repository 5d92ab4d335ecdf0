package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"
)

// Sui signature scheme flag for ed25519 keys. It prefixes both the address
// preimage and the serialized signature.
const ed25519Flag byte = 0x00

// Intent prefix for personal transaction data: scope, version, app id.
var txIntent = []byte{0x00, 0x00, 0x00}

// Signer manages an ed25519 key pair and its derived Sui address.
type Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	address    string
}

// GenerateKey creates a new random ed25519 key pair.
func GenerateKey() (*Signer, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		address:    deriveAddress(publicKey),
	}, nil
}

// FromPrivateKeyHex creates a Signer from a hex-encoded 32-byte seed.
// Format: "0x1234..." or "1234..." (64 hex chars).
func FromPrivateKeyHex(hexKey string) (*Signer, error) {
	if len(hexKey) >= 2 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	seed, err := hexutil.Decode("0x" + hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	privateKey := ed25519.NewKeyFromSeed(seed)
	publicKey := privateKey.Public().(ed25519.PublicKey)

	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		address:    deriveAddress(publicKey),
	}, nil
}

// deriveAddress computes the account address: blake2b-256 over the scheme
// flag followed by the raw public key.
func deriveAddress(publicKey ed25519.PublicKey) string {
	preimage := make([]byte, 0, 1+ed25519.PublicKeySize)
	preimage = append(preimage, ed25519Flag)
	preimage = append(preimage, publicKey...)
	digest := blake2b.Sum256(preimage)
	return hexutil.Encode(digest[:])
}

// Address returns the Sui address derived from the public key.
func (s *Signer) Address() string {
	return s.address
}

// PrivateKeyHex returns the 32-byte seed as hex (WITHOUT 0x prefix).
// WARNING: keep this secret, never write it to logs.
func (s *Signer) PrivateKeyHex() string {
	return fmt.Sprintf("%x", s.privateKey.Seed())
}

// PublicKeyHex returns the public key as hex (64 chars).
func (s *Signer) PublicKeyHex() string {
	return fmt.Sprintf("%x", s.publicKey)
}

// Sign signs transaction data under the transaction intent and returns the
// serialized signature: flag || sig || pubkey (97 bytes).
func (s *Signer) Sign(message []byte) ([]byte, error) {
	if len(message) == 0 {
		return nil, fmt.Errorf("cannot sign empty message")
	}

	payload := make([]byte, 0, len(txIntent)+len(message))
	payload = append(payload, txIntent...)
	payload = append(payload, message...)
	digest := blake2b.Sum256(payload)

	sig := ed25519.Sign(s.privateKey, digest[:])

	serialized := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, s.publicKey...)
	return serialized, nil
}

// VerifySignature checks a serialized signature against a message and the
// address it claims to come from.
func VerifySignature(address string, message []byte, signature []byte) bool {
	if len(signature) != 1+ed25519.SignatureSize+ed25519.PublicKeySize {
		return false
	}
	if signature[0] != ed25519Flag {
		return false
	}

	sig := signature[1 : 1+ed25519.SignatureSize]
	publicKey := ed25519.PublicKey(signature[1+ed25519.SignatureSize:])

	if deriveAddress(publicKey) != address {
		return false
	}

	payload := make([]byte, 0, len(txIntent)+len(message))
	payload = append(payload, txIntent...)
	payload = append(payload, message...)
	digest := blake2b.Sum256(payload)

	return ed25519.Verify(publicKey, digest[:], sig)
}
