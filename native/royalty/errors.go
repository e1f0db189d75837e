package royalty

import "errors"

var (
	// ErrInvalidFee reports a royalty fraction exceeding the fee denominator.
	// Call sites wrap it with the offending fraction and the denominator.
	ErrInvalidFee = errors.New("royalty: fee exceeds denominator")
	// ErrInvalidReceiver reports a zero receiver paired with a non-zero
	// fraction. Call sites wrap it with the token id being assigned.
	ErrInvalidReceiver = errors.New("royalty: empty receiver with non-zero fee")
	// ErrLengthMismatch reports a batch whose ids and royalties differ in
	// length. Call sites wrap it with both lengths.
	ErrLengthMismatch = errors.New("royalty: ids and royalties length mismatch")

	errNilState    = errors.New("royalty: registry state not configured")
	errNilRegistry = errors.New("royalty: minter registry not configured")
	errNilLedger   = errors.New("royalty: minter ledger not configured")
	errNilStaged   = errors.New("royalty: nil staged assignments")
)
