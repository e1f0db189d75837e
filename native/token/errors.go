package token

import "errors"

var (
	ErrEmptyReceiver       = errors.New("token: mint to empty address")
	ErrLengthMismatch      = errors.New("token: ids and values length mismatch")
	ErrInvalidAmount       = errors.New("token: invalid amount")
	ErrReceiverRejected    = errors.New("token: receiver rejected transfer")
	ErrInsufficientBalance = errors.New("token: insufficient balance")

	errNilState = errors.New("token: ledger state not configured")
)
