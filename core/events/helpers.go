package events

import (
	"math/big"
	"strconv"
	"strings"

	"sftledger/crypto"
)

func formatAddress(addr [20]byte) string {
	return crypto.Address(addr).String()
}

func joinTokenIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

func joinAmounts(values []*big.Int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			parts[i] = "0"
			continue
		}
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

func joinFees(fees []uint32) string {
	parts := make([]string, len(fees))
	for i, f := range fees {
		parts[i] = strconv.FormatUint(uint64(f), 10)
	}
	return strings.Join(parts, ",")
}
