package royalty

import (
	"fmt"
	"math/big"
	"sync"

	"sftledger/core/events"
)

// TokenLedger is the slice of ledger behaviour the batch minter depends on.
// The ledger independently validates the target owner and the ids/values
// shape, runs any receiver-acceptance handshake and fails atomically.
type TokenLedger interface {
	MintBatch(operator, to [20]byte, ids []uint64, values []*big.Int, data []byte) error
}

// BatchMinter composes the royalty registry with an external token ledger to
// assign per-token royalty terms atomically with batch creation. Royalty
// assignments are buffered and committed only after the ledger confirms the
// mint, so a rejected creation leaves the registry untouched.
type BatchMinter struct {
	registry *Registry
	ledger   TokenLedger
	emitter  events.Emitter

	mu sync.Mutex
}

// NewBatchMinter creates a minter over the provided registry and ledger.
func NewBatchMinter(registry *Registry, ledger TokenLedger) *BatchMinter {
	return &BatchMinter{registry: registry, ledger: ledger, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the emitter used for the combined creation
// disclosure. Passing nil resets the emitter to a no-op implementation.
func (m *BatchMinter) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// MintBatchWithRoyalties assigns one royalty term per token id, all paying the
// same receiver, and creates the batch for the target owner as a single
// all-or-nothing unit. The call fails fast with no state change when ids and
// fees differ in length or any term fails validation; a ledger failure aborts
// the whole call with the staged assignments never committed. After both
// commits succeed the combined disclosure event is emitted in addition to the
// plain creation event the ledger fires itself.
func (m *BatchMinter) MintBatchWithRoyalties(operator, receiver, to [20]byte, ids []uint64, values []*big.Int, fees []uint32, data []byte) error {
	if m == nil || m.registry == nil {
		return errNilRegistry
	}
	if m.ledger == nil {
		return errNilLedger
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ids) != len(fees) {
		return fmt.Errorf("%w: ids=%d royalties=%d", ErrLengthMismatch, len(ids), len(fees))
	}
	staged, err := m.registry.StageBatch(receiver, ids, fees)
	if err != nil {
		return err
	}
	if err := m.ledger.MintBatch(operator, to, ids, values, data); err != nil {
		return err
	}
	if err := m.registry.Commit(staged); err != nil {
		return err
	}
	m.emit(events.RoyaltyBatchMinted{
		Operator: operator,
		To:       to,
		Receiver: receiver,
		TokenIDs: append([]uint64(nil), ids...),
		Values:   cloneAmounts(values),
		FeesBps:  append([]uint32(nil), fees...),
	})
	return nil
}

func (m *BatchMinter) emit(event events.Event) {
	if m.emitter == nil {
		return
	}
	m.emitter.Emit(event)
}

func cloneAmounts(values []*big.Int) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = big.NewInt(0)
			continue
		}
		out[i] = new(big.Int).Set(v)
	}
	return out
}
