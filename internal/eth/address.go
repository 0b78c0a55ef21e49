package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/walletauth/core"
)

// NormalizeAddress validates a 0x-prefixed hex address and returns its EIP-55 form.
// All-lowercase input is accepted as is; mixed or upper case input must carry a
// correct checksum.
func NormalizeAddress(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return common.Address{}, core.ErrInvalidAddress
	}

	addr := common.HexToAddress(s)
	if s != strings.ToLower(s) && s != addr.Hex() {
		return common.Address{}, core.ErrInvalidAddress
	}

	return addr, nil
}
