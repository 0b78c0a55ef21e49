package eth

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/core"
)

// Verifier checks personal_sign (EIP-191) signatures over challenge messages
type Verifier struct {
	codec MessageCodec
}

// NewVerifier creates a verifier bound to the codec used for challenge generation
func NewVerifier(codec MessageCodec) *Verifier {
	return &Verifier{codec: codec}
}

// EncodeMessage returns the wire form of a challenge text
func (v *Verifier) EncodeMessage(text string) string {
	return v.codec.Encode(text)
}

// Verify checks that address signed message. Every failure is reported as
// core.ErrInvalidSignature.
func (v *Verifier) Verify(address, message, signature string) error {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return fmt.Errorf("address rejected: %w", core.ErrInvalidSignature)
	}

	payload, err := v.codec.Payload(message)
	if err != nil {
		return fmt.Errorf("%v: %w", err, core.ErrInvalidSignature)
	}

	return VerifyPersonalSignature(addr, payload, signature)
}

// VerifyPersonalSignature recovers the signer of a 65-byte hex signature over the
// EIP-191 hash of payload and compares it with expected.
func VerifyPersonalSignature(expected common.Address, payload []byte, signature string) error {
	decodedSig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(decodedSig) != crypto.SignatureLength {
		return fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}

	// wallets emit v as 27/28
	sig := make([]byte, len(decodedSig))
	copy(sig, decodedSig)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return fmt.Errorf("invalid recovery id: %w", core.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash(payload), sig)
	if err != nil {
		return fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	if crypto.PubkeyToAddress(*pub) != expected {
		return fmt.Errorf("signer mismatch: %w", core.ErrInvalidSignature)
	}

	return nil
}

// SignPersonalMessage produces a wallet-style personal_sign signature (v = 27/28)
func SignPersonalMessage(key *ecdsa.PrivateKey, payload []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(payload), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}
