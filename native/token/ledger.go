package token

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	"sftledger/core/events"
	"sftledger/core/state"
)

// Storage abstracts the subset of state manager functionality required by the
// token ledger.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	NewKVBatch() *state.KVBatch
}

// ReceiverHook is consulted before balances are credited. A non-nil error
// rejects the transfer and aborts the whole mint without any state change.
// This mirrors the acceptance handshake smart-token standards run against
// receiving contracts.
type ReceiverHook interface {
	OnTokenReceived(operator, from, to [20]byte, id uint64, value *big.Int, data []byte) error
	OnTokenBatchReceived(operator, from, to [20]byte, ids []uint64, values []*big.Int, data []byte) error
}

// Ledger tracks balances, total supply and existence for semi-fungible token
// ids. All mutating operations commit through a single storage batch, so a
// failure anywhere leaves the ledger untouched.
type Ledger struct {
	st      Storage
	emitter events.Emitter
	hook    ReceiverHook

	mu sync.Mutex

	capMu sync.RWMutex
	caps  map[string]struct{}
}

// NewLedger creates a ledger backed by the provided state manager.
func NewLedger(st Storage) *Ledger {
	return &Ledger{
		st:      st,
		emitter: events.NoopEmitter{},
		caps:    make(map[string]struct{}),
	}
}

// SetEmitter configures the event emitter used to broadcast ledger updates.
// Passing nil resets the emitter to a no-op implementation.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetReceiverHook configures the acceptance handshake. A nil hook accepts all
// transfers.
func (l *Ledger) SetReceiverHook(hook ReceiverHook) {
	l.hook = hook
}

// RegisterCapability records a capability identifier so external parties can
// discover what the ledger composition supports.
func (l *Ledger) RegisterCapability(name string) {
	if name == "" {
		return
	}
	l.capMu.Lock()
	defer l.capMu.Unlock()
	l.caps[name] = struct{}{}
}

// SupportsCapability reports whether the named capability has been registered.
func (l *Ledger) SupportsCapability(name string) bool {
	l.capMu.RLock()
	defer l.capMu.RUnlock()
	_, ok := l.caps[name]
	return ok
}

// Capabilities returns the registered capability identifiers in deterministic
// order.
func (l *Ledger) Capabilities() []string {
	l.capMu.RLock()
	defer l.capMu.RUnlock()
	names := make([]string, 0, len(l.caps))
	for name := range l.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mint creates value units of a single token id for the target owner.
func (l *Ledger) Mint(operator, to [20]byte, id uint64, value *big.Int, data []byte) error {
	if l == nil || l.st == nil {
		return errNilState
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if to == ([20]byte{}) {
		return ErrEmptyReceiver
	}
	if err := validateAmount(value); err != nil {
		return err
	}
	if l.hook != nil {
		if err := l.hook.OnTokenReceived(operator, [20]byte{}, to, id, value, data); err != nil {
			return fmt.Errorf("%w: %v", ErrReceiverRejected, err)
		}
	}
	batch := l.st.NewKVBatch()
	if err := l.stageCredit(batch, to, id, value); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	l.emit(events.TokenMinted{Operator: operator, To: to, TokenID: id, Value: cloneBigInt(value)})
	return nil
}

// MintBatch creates several token ids for the target owner in one atomic
// operation. Shape violations and handshake rejections abort before any write.
func (l *Ledger) MintBatch(operator, to [20]byte, ids []uint64, values []*big.Int, data []byte) error {
	if l == nil || l.st == nil {
		return errNilState
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if to == ([20]byte{}) {
		return ErrEmptyReceiver
	}
	if len(ids) != len(values) {
		return fmt.Errorf("%w: ids=%d values=%d", ErrLengthMismatch, len(ids), len(values))
	}
	for _, value := range values {
		if err := validateAmount(value); err != nil {
			return err
		}
	}
	if l.hook != nil {
		if err := l.hook.OnTokenBatchReceived(operator, [20]byte{}, to, ids, values, data); err != nil {
			return fmt.Errorf("%w: %v", ErrReceiverRejected, err)
		}
	}
	batch := l.st.NewKVBatch()
	// Credits for a repeated id within the batch must accumulate, so staged
	// amounts are tracked per key before they land in the batch.
	staged := newStagedAmounts(l.st)
	for i, id := range ids {
		if err := staged.credit(balanceKey(id, to), values[i]); err != nil {
			return err
		}
		if err := staged.credit(supplyKey(id), values[i]); err != nil {
			return err
		}
	}
	if err := staged.flush(batch); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	l.emit(events.TokenBatchMinted{
		Operator: operator,
		To:       to,
		TokenIDs: append([]uint64(nil), ids...),
		Values:   cloneAmounts(values),
	})
	return nil
}

// BurnBatch destroys value units of several token ids held by from in one
// atomic operation. Shape violations and insufficient balances abort before
// any write; debits for a repeated id accumulate against the same record.
func (l *Ledger) BurnBatch(operator, from [20]byte, ids []uint64, values []*big.Int) error {
	if l == nil || l.st == nil {
		return errNilState
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(ids) != len(values) {
		return fmt.Errorf("%w: ids=%d values=%d", ErrLengthMismatch, len(ids), len(values))
	}
	for _, value := range values {
		if err := validateAmount(value); err != nil {
			return err
		}
	}
	batch := l.st.NewKVBatch()
	staged := newStagedAmounts(l.st)
	for i, id := range ids {
		if err := staged.debit(balanceKey(id, from), values[i], fmt.Sprintf("token %d balance", id)); err != nil {
			return err
		}
		if err := staged.debit(supplyKey(id), values[i], fmt.Sprintf("token %d supply", id)); err != nil {
			return err
		}
	}
	if err := staged.flush(batch); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	l.emit(events.TokenBatchBurned{
		Operator: operator,
		From:     from,
		TokenIDs: append([]uint64(nil), ids...),
		Values:   cloneAmounts(values),
	})
	return nil
}

// Burn destroys value units held by from. Supply and balance records are
// removed entirely when they reach zero, so a fully burned id no longer
// exists and may later be recreated.
func (l *Ledger) Burn(operator, from [20]byte, id uint64, value *big.Int) error {
	if l == nil || l.st == nil {
		return errNilState
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := validateAmount(value); err != nil {
		return err
	}
	balance, err := l.loadAmount(balanceKey(id, from))
	if err != nil {
		return err
	}
	if balance.Cmp(value) < 0 {
		return fmt.Errorf("%w: token %d balance %s burn %s", ErrInsufficientBalance, id, balance, value)
	}
	supply, err := l.loadAmount(supplyKey(id))
	if err != nil {
		return err
	}
	batch := l.st.NewKVBatch()
	if err := stageAmount(batch, balanceKey(id, from), new(big.Int).Sub(balance, value)); err != nil {
		return err
	}
	if err := stageAmount(batch, supplyKey(id), new(big.Int).Sub(supply, value)); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	l.emit(events.TokenBurned{Operator: operator, From: from, TokenID: id, Value: cloneBigInt(value)})
	return nil
}

// BalanceOf returns the balance held by addr for the given token id. Absent
// records read as zero.
func (l *Ledger) BalanceOf(addr [20]byte, id uint64) (*big.Int, error) {
	if l == nil || l.st == nil {
		return nil, errNilState
	}
	return l.loadAmount(balanceKey(id, addr))
}

// TotalSupply returns the total units in circulation for the given token id.
func (l *Ledger) TotalSupply(id uint64) (*big.Int, error) {
	if l == nil || l.st == nil {
		return nil, errNilState
	}
	return l.loadAmount(supplyKey(id))
}

// Exists reports whether the token id currently has a supply record.
func (l *Ledger) Exists(id uint64) (bool, error) {
	if l == nil || l.st == nil {
		return false, errNilState
	}
	found, err := l.st.KVGet(supplyKey(id), nil)
	if err != nil {
		return false, err
	}
	return found, nil
}

func (l *Ledger) loadAmount(key []byte) (*big.Int, error) {
	amount := new(big.Int)
	found, err := l.st.KVGet(key, amount)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return amount, nil
}

func (l *Ledger) stageCredit(batch *state.KVBatch, to [20]byte, id uint64, value *big.Int) error {
	balance, err := l.loadAmount(balanceKey(id, to))
	if err != nil {
		return err
	}
	if err := stageAmount(batch, balanceKey(id, to), new(big.Int).Add(balance, value)); err != nil {
		return err
	}
	supply, err := l.loadAmount(supplyKey(id))
	if err != nil {
		return err
	}
	return stageAmount(batch, supplyKey(id), new(big.Int).Add(supply, value))
}

func (l *Ledger) emit(event events.Event) {
	if l.emitter == nil {
		return
	}
	l.emitter.Emit(event)
}

// stageAmount writes the amount, or deletes the record when it reaches zero so
// existence tracking follows supply.
func stageAmount(batch *state.KVBatch, key []byte, amount *big.Int) error {
	if amount.Sign() == 0 {
		return batch.KVDelete(key)
	}
	return batch.KVPut(key, amount)
}

type stagedAmounts struct {
	st      Storage
	order   []string
	amounts map[string]*big.Int
}

func newStagedAmounts(st Storage) *stagedAmounts {
	return &stagedAmounts{st: st, amounts: make(map[string]*big.Int)}
}

func (s *stagedAmounts) credit(key []byte, value *big.Int) error {
	k := string(key)
	current, ok := s.amounts[k]
	if !ok {
		stored := new(big.Int)
		found, err := s.st.KVGet(key, stored)
		if err != nil {
			return err
		}
		if !found {
			stored = big.NewInt(0)
		}
		current = stored
		s.order = append(s.order, k)
	}
	s.amounts[k] = new(big.Int).Add(current, value)
	return nil
}

// debit subtracts from the staged amount, checking against the accumulated
// remainder so repeated ids cannot overdraw between them.
func (s *stagedAmounts) debit(key []byte, value *big.Int, subject string) error {
	k := string(key)
	current, ok := s.amounts[k]
	if !ok {
		stored := new(big.Int)
		found, err := s.st.KVGet(key, stored)
		if err != nil {
			return err
		}
		if !found {
			stored = big.NewInt(0)
		}
		current = stored
		s.order = append(s.order, k)
	}
	if current.Cmp(value) < 0 {
		return fmt.Errorf("%w: %s %s burn %s", ErrInsufficientBalance, subject, current, value)
	}
	s.amounts[k] = new(big.Int).Sub(current, value)
	return nil
}

func (s *stagedAmounts) flush(batch *state.KVBatch) error {
	for _, k := range s.order {
		if err := stageAmount(batch, []byte(k), s.amounts[k]); err != nil {
			return err
		}
	}
	return nil
}

func validateAmount(value *big.Int) error {
	if value == nil {
		return fmt.Errorf("%w: nil", ErrInvalidAmount)
	}
	if value.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, value)
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func cloneAmounts(values []*big.Int) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = cloneBigInt(v)
	}
	return out
}
