package rpc

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"sftledger/crypto"
	"sftledger/native/royalty"
	"sftledger/observability"
)

type royaltyInfoParams struct {
	TokenID   uint64 `json:"tokenId"`
	SalePrice string `json:"salePrice"`
}

type royaltyInfoResult struct {
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

func (s *Server) handleRoyaltyInfo(params []json.RawMessage) (interface{}, *RPCError) {
	var p royaltyInfoParams
	if rpcErr := singleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	salePrice, rpcErr := parseAmount(p.SalePrice)
	if rpcErr != nil {
		return nil, rpcErr
	}
	receiver, amount := s.registry.RoyaltyInfo(p.TokenID, salePrice)
	observability.RegistryMetrics().RecordLookup()
	return royaltyInfoResult{
		Receiver: crypto.Address(receiver).String(),
		Amount:   amount.String(),
	}, nil
}

func (s *Server) handleFeeDenominator(params []json.RawMessage) (interface{}, *RPCError) {
	if len(params) != 0 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "no parameters expected"}
	}
	return royalty.FeeDenominator, nil
}

type setDefaultRoyaltyParams struct {
	Receiver string `json:"receiver"`
	FeeBps   uint32 `json:"feeBps"`
}

func (s *Server) handleSetDefaultRoyalty(params []json.RawMessage) (interface{}, *RPCError) {
	var p setDefaultRoyaltyParams
	if rpcErr := singleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	receiver, rpcErr := parseOptionalAddress(p.Receiver)
	if rpcErr != nil {
		return nil, rpcErr
	}
	err := s.registry.SetDefaultRoyalty(receiver, p.FeeBps)
	observability.RegistryMetrics().RecordMutation("setDefault", err)
	if err != nil {
		return nil, rpcErrorFor(err)
	}
	return true, nil
}

func (s *Server) handleDeleteDefaultRoyalty(params []json.RawMessage) (interface{}, *RPCError) {
	if len(params) != 0 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "no parameters expected"}
	}
	err := s.registry.DeleteDefaultRoyalty()
	observability.RegistryMetrics().RecordMutation("deleteDefault", err)
	if err != nil {
		return nil, rpcErrorFor(err)
	}
	return true, nil
}

type setTokenRoyaltyParams struct {
	TokenID  uint64 `json:"tokenId"`
	Receiver string `json:"receiver"`
	FeeBps   uint32 `json:"feeBps"`
}

func (s *Server) handleSetTokenRoyalty(params []json.RawMessage) (interface{}, *RPCError) {
	var p setTokenRoyaltyParams
	if rpcErr := singleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	receiver, rpcErr := parseOptionalAddress(p.Receiver)
	if rpcErr != nil {
		return nil, rpcErr
	}
	err := s.registry.SetTokenRoyalty(p.TokenID, receiver, p.FeeBps)
	observability.RegistryMetrics().RecordMutation("setToken", err)
	if err != nil {
		return nil, rpcErrorFor(err)
	}
	return true, nil
}

type resetTokenRoyaltyParams struct {
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleResetTokenRoyalty(params []json.RawMessage) (interface{}, *RPCError) {
	var p resetTokenRoyaltyParams
	if rpcErr := singleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	err := s.registry.ResetTokenRoyalty(p.TokenID)
	observability.RegistryMetrics().RecordMutation("resetToken", err)
	if err != nil {
		return nil, rpcErrorFor(err)
	}
	return true, nil
}

type mintBatchParams struct {
	Operator  string   `json:"operator"`
	Receiver  string   `json:"receiver"`
	To        string   `json:"to"`
	TokenIDs  []uint64 `json:"tokenIds"`
	Values    []string `json:"values"`
	Royalties []uint32 `json:"royalties"`
	Data      string   `json:"data,omitempty"`
}

func (s *Server) handleMintBatch(params []json.RawMessage) (interface{}, *RPCError) {
	var p mintBatchParams
	if rpcErr := singleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	operator, rpcErr := parseOptionalAddress(p.Operator)
	if rpcErr != nil {
		return nil, rpcErr
	}
	receiver, rpcErr := parseOptionalAddress(p.Receiver)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseOptionalAddress(p.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	values := make([]*big.Int, len(p.Values))
	for i, raw := range p.Values {
		value, rpcErr := parseAmount(raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		values[i] = value
	}
	var data []byte
	if trimmed := strings.TrimSpace(p.Data); trimmed != "" {
		decoded, err := base64.StdEncoding.DecodeString(trimmed)
		if err != nil {
			return nil, &RPCError{Code: codeInvalidParams, Message: "data must be base64 encoded"}
		}
		data = decoded
	}
	started := time.Now()
	err := s.minter.MintBatchWithRoyalties(operator, receiver, to, p.TokenIDs, values, p.Royalties, data)
	observability.MinterMetrics().RecordBatch(len(p.TokenIDs), started, err)
	if err != nil {
		return nil, rpcErrorFor(err)
	}
	return true, nil
}

func (s *Server) handleCapabilities(params []json.RawMessage) (interface{}, *RPCError) {
	if len(params) != 0 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "no parameters expected"}
	}
	return s.ledger.Capabilities(), nil
}

func parseOptionalAddress(raw string) ([20]byte, *RPCError) {
	if strings.TrimSpace(raw) == "" {
		return [20]byte{}, nil
	}
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return [20]byte{}, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	return addr, nil
}

func parseAmount(raw string) (*big.Int, *RPCError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, &RPCError{Code: codeInvalidParams, Message: "invalid decimal amount: " + raw}
	}
	return amount, nil
}
