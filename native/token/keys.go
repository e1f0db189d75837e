package token

import (
	"encoding/hex"
	"strconv"
)

var (
	balancePrefix = []byte("token/balance/")
	supplyPrefix  = []byte("token/supply/")
)

func supplyKey(id uint64) []byte {
	suffix := strconv.FormatUint(id, 10)
	buf := make([]byte, 0, len(supplyPrefix)+len(suffix))
	buf = append(buf, supplyPrefix...)
	return append(buf, suffix...)
}

func balanceKey(id uint64, addr [20]byte) []byte {
	idPart := strconv.FormatUint(id, 10)
	addrPart := hex.EncodeToString(addr[:])
	buf := make([]byte, 0, len(balancePrefix)+len(idPart)+1+len(addrPart))
	buf = append(buf, balancePrefix...)
	buf = append(buf, idPart...)
	buf = append(buf, '/')
	return append(buf, addrPart...)
}
