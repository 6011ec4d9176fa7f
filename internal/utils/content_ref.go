package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
)

// sha2-256 multihash prefix: function code 0x12, digest length 0x20
var multihashPrefix = []byte{0x12, 0x20}

var ErrInvalidContentRef = errors.New("invalid content reference")

// ContentRefFromCID converts a CIDv0 ("Qm...") into the 32-byte digest stored
// on proposals. A 0x-prefixed 32-byte hex string is accepted unchanged.
func ContentRefFromCID(cid string) (common.Hash, error) {
	cid = strings.TrimSpace(cid)
	if strings.HasPrefix(cid, "0x") {
		raw, err := hexutil.Decode(cid)
		if err != nil || len(raw) != common.HashLength {
			return common.Hash{}, fmt.Errorf("%w: %q", ErrInvalidContentRef, cid)
		}
		return common.BytesToHash(raw), nil
	}

	raw, err := base58.Decode(cid)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrInvalidContentRef, err)
	}
	if len(raw) != len(multihashPrefix)+common.HashLength ||
		raw[0] != multihashPrefix[0] || raw[1] != multihashPrefix[1] {
		return common.Hash{}, fmt.Errorf("%w: not a sha2-256 CIDv0", ErrInvalidContentRef)
	}
	return common.BytesToHash(raw[len(multihashPrefix):]), nil
}

// CIDFromContentRef is the inverse of ContentRefFromCID
func CIDFromContentRef(ref common.Hash) string {
	raw := make([]byte, 0, len(multihashPrefix)+common.HashLength)
	raw = append(raw, multihashPrefix...)
	raw = append(raw, ref.Bytes()...)
	return base58.Encode(raw)
}
