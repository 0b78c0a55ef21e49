package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MessageEncoding selects how a challenge is represented on the wire
type MessageEncoding string

const (
	// EncodingText sends the challenge as UTF-8 text; the text bytes are signed
	EncodingText MessageEncoding = "text"

	// EncodingHex sends the challenge as 0x-hex of its UTF-8 bytes; the decoded bytes are signed
	EncodingHex MessageEncoding = "hex"
)

// MessageCodec converts challenge text to its wire form and back to the signed payload.
// Generation and verification must share one codec.
type MessageCodec struct {
	encoding MessageEncoding
}

// NewMessageCodec creates a codec for the named encoding
func NewMessageCodec(encoding string) (MessageCodec, error) {
	switch MessageEncoding(encoding) {
	case EncodingText, EncodingHex:
		return MessageCodec{encoding: MessageEncoding(encoding)}, nil
	case "":
		return MessageCodec{encoding: EncodingText}, nil
	default:
		return MessageCodec{}, fmt.Errorf("unknown message encoding %q", encoding)
	}
}

// Encoding returns the configured encoding
func (c MessageCodec) Encoding() MessageEncoding {
	if c.encoding == "" {
		return EncodingText
	}
	return c.encoding
}

// Encode returns the wire form of a challenge text
func (c MessageCodec) Encode(text string) string {
	if c.Encoding() == EncodingHex {
		return hexutil.Encode([]byte(text))
	}
	return text
}

// Payload returns the bytes the wallet signs for a wire-form message
func (c MessageCodec) Payload(message string) ([]byte, error) {
	if c.Encoding() == EncodingHex {
		raw, err := hexutil.Decode(message)
		if err != nil {
			return nil, fmt.Errorf("failed to decode hex message: %w", err)
		}
		return raw, nil
	}
	return []byte(message), nil
}
