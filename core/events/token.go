package events

import (
	"math/big"

	"sftledger/core/types"
)

const (
	// TypeTokenMinted is emitted when a single token id is created.
	TypeTokenMinted = "token.minted"
	// TypeTokenBatchMinted is emitted when a batch of token ids is created in
	// one atomic operation.
	TypeTokenBatchMinted = "token.batchMinted"
	// TypeTokenBurned is emitted when balances of a token id are destroyed.
	TypeTokenBurned = "token.burned"
	// TypeTokenBatchBurned is emitted when balances of several token ids are
	// destroyed in one atomic operation.
	TypeTokenBatchBurned = "token.batchBurned"
)

// TokenMinted reports creation of value units of a single token id.
type TokenMinted struct {
	Operator [20]byte
	To       [20]byte
	TokenID  uint64
	Value    *big.Int
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Event() *types.Event {
	value := e.Value
	if value == nil {
		value = big.NewInt(0)
	}
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"operator": formatAddress(e.Operator),
			"to":       formatAddress(e.To),
			"tokenId":  joinTokenIDs([]uint64{e.TokenID}),
			"value":    value.String(),
		},
	}
}

// TokenBatchMinted reports the atomic creation of several token ids. From is
// always the zero address for a mint.
type TokenBatchMinted struct {
	Operator [20]byte
	To       [20]byte
	TokenIDs []uint64
	Values   []*big.Int
}

func (TokenBatchMinted) EventType() string { return TypeTokenBatchMinted }

func (e TokenBatchMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenBatchMinted,
		Attributes: map[string]string{
			"operator": formatAddress(e.Operator),
			"from":     formatAddress([20]byte{}),
			"to":       formatAddress(e.To),
			"tokenIds": joinTokenIDs(e.TokenIDs),
			"values":   joinAmounts(e.Values),
		},
	}
}

// TokenBatchBurned reports the atomic destruction of several token ids. To is
// always the zero address for a burn.
type TokenBatchBurned struct {
	Operator [20]byte
	From     [20]byte
	TokenIDs []uint64
	Values   []*big.Int
}

func (TokenBatchBurned) EventType() string { return TypeTokenBatchBurned }

func (e TokenBatchBurned) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenBatchBurned,
		Attributes: map[string]string{
			"operator": formatAddress(e.Operator),
			"from":     formatAddress(e.From),
			"to":       formatAddress([20]byte{}),
			"tokenIds": joinTokenIDs(e.TokenIDs),
			"values":   joinAmounts(e.Values),
		},
	}
}

// TokenBurned reports destruction of value units held by From.
type TokenBurned struct {
	Operator [20]byte
	From     [20]byte
	TokenID  uint64
	Value    *big.Int
}

func (TokenBurned) EventType() string { return TypeTokenBurned }

func (e TokenBurned) Event() *types.Event {
	value := e.Value
	if value == nil {
		value = big.NewInt(0)
	}
	return &types.Event{
		Type: TypeTokenBurned,
		Attributes: map[string]string{
			"operator": formatAddress(e.Operator),
			"from":     formatAddress(e.From),
			"tokenId":  joinTokenIDs([]uint64{e.TokenID}),
			"value":    value.String(),
		},
	}
}
