package royalty

import (
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"sftledger/core/events"
	"sftledger/core/state"
)

// FeeDenominator is the fixed denominator for royalty fractions, expressed in
// basis points: a fee of 100 represents 1% of the sale price. It is constant
// for the lifetime of a registry.
const FeeDenominator uint32 = 10_000

// CapabilityDisclosure identifies the royalty-disclosure capability within the
// ledger's capability table.
const CapabilityDisclosure = "royaltyInfo"

var (
	defaultRoyaltyKey  = []byte("royalty/default")
	tokenRoyaltyPrefix = []byte("royalty/token/")
)

func tokenRoyaltyKey(id uint64) []byte {
	suffix := strconv.FormatUint(id, 10)
	buf := make([]byte, 0, len(tokenRoyaltyPrefix)+len(suffix))
	buf = append(buf, tokenRoyaltyPrefix...)
	return append(buf, suffix...)
}

// Storage abstracts the subset of state manager functionality required by the
// royalty registry.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	NewKVBatch() *state.KVBatch
}

// RoyaltyRecord is a stored or resolved royalty term. The zero value is the
// empty record: no receiver, no fee.
type RoyaltyRecord struct {
	Receiver [20]byte
	FeeBps   uint32
}

// Empty reports whether the record discloses no royalty at all.
func (r RoyaltyRecord) Empty() bool {
	return r.Receiver == ([20]byte{}) && r.FeeBps == 0
}

// Registry owns the default royalty record and the sparse per-token
// overrides. Royalty records are independent of ledger balance state: they
// survive destruction of the underlying token and apply unchanged if the same
// id is recreated.
type Registry struct {
	st      Storage
	emitter events.Emitter

	mu sync.Mutex
}

// NewRegistry creates a registry backed by the provided state manager.
func NewRegistry(st Storage) *Registry {
	return &Registry{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetDefaultRoyalty replaces the fallback royalty record applied to every
// token without an override.
func (r *Registry) SetDefaultRoyalty(receiver [20]byte, feeBps uint32) error {
	if r == nil || r.st == nil {
		return errNilState
	}
	if err := validateTerm(receiver, feeBps, "default"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	record := RoyaltyRecord{Receiver: receiver, FeeBps: feeBps}
	if err := r.st.KVPut(defaultRoyaltyKey, record); err != nil {
		return err
	}
	r.emit(events.RoyaltyDefaultUpdated{Receiver: receiver, FeeBps: feeBps})
	return nil
}

// DeleteDefaultRoyalty clears the fallback record. Tokens without an override
// then resolve to the empty record.
func (r *Registry) DeleteDefaultRoyalty() error {
	if r == nil || r.st == nil {
		return errNilState
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.st.KVDelete(defaultRoyaltyKey); err != nil {
		return err
	}
	r.emit(events.RoyaltyDefaultCleared{})
	return nil
}

// SetTokenRoyalty inserts or replaces the override for the given token id.
// Validation failures leave any prior override unchanged.
func (r *Registry) SetTokenRoyalty(id uint64, receiver [20]byte, feeBps uint32) error {
	if r == nil || r.st == nil {
		return errNilState
	}
	if err := validateTerm(receiver, feeBps, fmt.Sprintf("token %d", id)); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	record := RoyaltyRecord{Receiver: receiver, FeeBps: feeBps}
	if err := r.st.KVPut(tokenRoyaltyKey(id), record); err != nil {
		return err
	}
	r.emit(events.RoyaltyTokenUpdated{TokenID: id, Receiver: receiver, FeeBps: feeBps})
	return nil
}

// ResetTokenRoyalty removes the override for the given token id, restoring
// default resolution. Resetting an absent override is a no-op.
func (r *Registry) ResetTokenRoyalty(id uint64) error {
	if r == nil || r.st == nil {
		return errNilState
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.st.KVDelete(tokenRoyaltyKey(id)); err != nil {
		return err
	}
	r.emit(events.RoyaltyTokenReset{TokenID: id})
	return nil
}

// RoyaltyInfo resolves the royalty term for the given token id and reports
// the receiver together with the amount owed on the supplied sale price. The
// amount is floor(salePrice * fee / FeeDenominator) computed in arbitrary
// precision, so the product cannot wrap. The query never fails: when nothing
// resolves it reports the zero receiver and a zero amount.
func (r *Registry) RoyaltyInfo(id uint64, salePrice *big.Int) ([20]byte, *big.Int) {
	record := r.resolve(id)
	if record.FeeBps == 0 || salePrice == nil || salePrice.Sign() <= 0 {
		return record.Receiver, big.NewInt(0)
	}
	amount := new(big.Int).Mul(salePrice, big.NewInt(int64(record.FeeBps)))
	amount.Quo(amount, big.NewInt(int64(FeeDenominator)))
	return record.Receiver, amount
}

// TokenRoyalty returns the stored override for the given id, if any.
func (r *Registry) TokenRoyalty(id uint64) (RoyaltyRecord, bool) {
	if r == nil || r.st == nil {
		return RoyaltyRecord{}, false
	}
	record := RoyaltyRecord{}
	ok, err := r.st.KVGet(tokenRoyaltyKey(id), &record)
	if err != nil || !ok {
		return RoyaltyRecord{}, false
	}
	return record, true
}

// DefaultRoyalty returns the stored fallback record, if any.
func (r *Registry) DefaultRoyalty() (RoyaltyRecord, bool) {
	if r == nil || r.st == nil {
		return RoyaltyRecord{}, false
	}
	record := RoyaltyRecord{}
	ok, err := r.st.KVGet(defaultRoyaltyKey, &record)
	if err != nil || !ok {
		return RoyaltyRecord{}, false
	}
	return record, true
}

// resolve picks the override if one is stored and non-empty, otherwise the
// default, otherwise the empty record.
func (r *Registry) resolve(id uint64) RoyaltyRecord {
	if record, ok := r.TokenRoyalty(id); ok && !record.Empty() {
		return record
	}
	if record, ok := r.DefaultRoyalty(); ok {
		return record
	}
	return RoyaltyRecord{}
}

// StagedAssignments buffers validated per-token royalty terms that have not
// been persisted yet. The batch minter commits them only after the ledger
// confirms creation.
type StagedAssignments struct {
	receiver [20]byte
	ids      []uint64
	fees     []uint32
}

// StageBatch validates one royalty term per token id, all sharing the same
// receiver, and buffers them without touching stored state.
func (r *Registry) StageBatch(receiver [20]byte, ids []uint64, fees []uint32) (*StagedAssignments, error) {
	if r == nil || r.st == nil {
		return nil, errNilState
	}
	if len(ids) != len(fees) {
		return nil, fmt.Errorf("%w: ids=%d royalties=%d", ErrLengthMismatch, len(ids), len(fees))
	}
	for i, id := range ids {
		if err := validateTerm(receiver, fees[i], fmt.Sprintf("token %d", id)); err != nil {
			return nil, err
		}
	}
	return &StagedAssignments{
		receiver: receiver,
		ids:      append([]uint64(nil), ids...),
		fees:     append([]uint32(nil), fees...),
	}, nil
}

// Commit persists previously staged assignments in one atomic batch.
func (r *Registry) Commit(staged *StagedAssignments) error {
	if r == nil || r.st == nil {
		return errNilState
	}
	if staged == nil {
		return errNilStaged
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.st.NewKVBatch()
	for i, id := range staged.ids {
		record := RoyaltyRecord{Receiver: staged.receiver, FeeBps: staged.fees[i]}
		if err := batch.KVPut(tokenRoyaltyKey(id), record); err != nil {
			return err
		}
	}
	return batch.Write()
}

func (r *Registry) emit(event events.Event) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(event)
}

func validateTerm(receiver [20]byte, feeBps uint32, subject string) error {
	if feeBps > FeeDenominator {
		return fmt.Errorf("%w: %s fee %d/%d", ErrInvalidFee, subject, feeBps, FeeDenominator)
	}
	if feeBps > 0 && receiver == ([20]byte{}) {
		return fmt.Errorf("%w: %s", ErrInvalidReceiver, subject)
	}
	return nil
}
