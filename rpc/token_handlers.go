package rpc

import (
	"encoding/json"

	"sftledger/crypto"
)

type balanceOfParams struct {
	Address string `json:"address"`
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleBalanceOf(params []json.RawMessage) (interface{}, *RPCError) {
	var p balanceOfParams
	if rpcErr := singleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := crypto.ParseAddress(p.Address)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	balance, lookupErr := s.ledger.BalanceOf(addr, p.TokenID)
	if lookupErr != nil {
		return nil, rpcErrorFor(lookupErr)
	}
	return balance.String(), nil
}

type totalSupplyParams struct {
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleTotalSupply(params []json.RawMessage) (interface{}, *RPCError) {
	var p totalSupplyParams
	if rpcErr := singleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	supply, err := s.ledger.TotalSupply(p.TokenID)
	if err != nil {
		return nil, rpcErrorFor(err)
	}
	return supply.String(), nil
}

type existsParams struct {
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleExists(params []json.RawMessage) (interface{}, *RPCError) {
	var p existsParams
	if rpcErr := singleParam(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	exists, err := s.ledger.Exists(p.TokenID)
	if err != nil {
		return nil, rpcErrorFor(err)
	}
	return exists, nil
}
