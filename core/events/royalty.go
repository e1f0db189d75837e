package events

import (
	"math/big"
	"strconv"

	"sftledger/core/types"
)

const (
	// TypeRoyaltyDefaultUpdated is emitted when the fallback royalty record
	// changes.
	TypeRoyaltyDefaultUpdated = "royalty.defaultUpdated"
	// TypeRoyaltyDefaultCleared is emitted when the fallback royalty record is
	// removed.
	TypeRoyaltyDefaultCleared = "royalty.defaultCleared"
	// TypeRoyaltyTokenUpdated is emitted when a per-token override is set or
	// replaced.
	TypeRoyaltyTokenUpdated = "royalty.tokenUpdated"
	// TypeRoyaltyTokenReset is emitted when a per-token override is removed.
	TypeRoyaltyTokenReset = "royalty.tokenReset"
	// TypeRoyaltyBatchMinted is the combined disclosure fired after a batch
	// mint with royalties fully succeeds. It carries the royalty terms next to
	// the plain creation data the ledger already reported.
	TypeRoyaltyBatchMinted = "royalty.batchMinted"
)

// RoyaltyDefaultUpdated reports a new fallback royalty record.
type RoyaltyDefaultUpdated struct {
	Receiver [20]byte
	FeeBps   uint32
}

func (RoyaltyDefaultUpdated) EventType() string { return TypeRoyaltyDefaultUpdated }

func (e RoyaltyDefaultUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRoyaltyDefaultUpdated,
		Attributes: map[string]string{
			"receiver": formatAddress(e.Receiver),
			"feeBps":   strconv.FormatUint(uint64(e.FeeBps), 10),
		},
	}
}

// RoyaltyDefaultCleared reports removal of the fallback royalty record.
type RoyaltyDefaultCleared struct{}

func (RoyaltyDefaultCleared) EventType() string { return TypeRoyaltyDefaultCleared }

func (e RoyaltyDefaultCleared) Event() *types.Event {
	return &types.Event{Type: TypeRoyaltyDefaultCleared, Attributes: map[string]string{}}
}

// RoyaltyTokenUpdated reports an inserted or replaced per-token override.
type RoyaltyTokenUpdated struct {
	TokenID  uint64
	Receiver [20]byte
	FeeBps   uint32
}

func (RoyaltyTokenUpdated) EventType() string { return TypeRoyaltyTokenUpdated }

func (e RoyaltyTokenUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRoyaltyTokenUpdated,
		Attributes: map[string]string{
			"tokenId":  strconv.FormatUint(e.TokenID, 10),
			"receiver": formatAddress(e.Receiver),
			"feeBps":   strconv.FormatUint(uint64(e.FeeBps), 10),
		},
	}
}

// RoyaltyTokenReset reports removal of a per-token override.
type RoyaltyTokenReset struct {
	TokenID uint64
}

func (RoyaltyTokenReset) EventType() string { return TypeRoyaltyTokenReset }

func (e RoyaltyTokenReset) Event() *types.Event {
	return &types.Event{
		Type: TypeRoyaltyTokenReset,
		Attributes: map[string]string{
			"tokenId": strconv.FormatUint(e.TokenID, 10),
		},
	}
}

// RoyaltyBatchMinted is the combined creation disclosure: the minted ids and
// values together with the royalty terms assigned to them.
type RoyaltyBatchMinted struct {
	Operator [20]byte
	To       [20]byte
	Receiver [20]byte
	TokenIDs []uint64
	Values   []*big.Int
	FeesBps  []uint32
}

func (RoyaltyBatchMinted) EventType() string { return TypeRoyaltyBatchMinted }

func (e RoyaltyBatchMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeRoyaltyBatchMinted,
		Attributes: map[string]string{
			"operator": formatAddress(e.Operator),
			"from":     formatAddress([20]byte{}),
			"to":       formatAddress(e.To),
			"receiver": formatAddress(e.Receiver),
			"tokenIds": joinTokenIDs(e.TokenIDs),
			"values":   joinAmounts(e.Values),
			"feesBps":  joinFees(e.FeesBps),
		},
	}
}
