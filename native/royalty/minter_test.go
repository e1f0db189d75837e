package royalty

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"sftledger/core/events"
	"sftledger/core/state"
	"sftledger/native/token"
	"sftledger/storage"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEmitter) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, event := range r.events {
		out[i] = event.EventType()
	}
	return out
}

type rejectingHook struct{}

func (rejectingHook) OnTokenReceived(operator, from, to [20]byte, id uint64, value *big.Int, data []byte) error {
	return fmt.Errorf("no thanks")
}

func (rejectingHook) OnTokenBatchReceived(operator, from, to [20]byte, ids []uint64, values []*big.Int, data []byte) error {
	return fmt.Errorf("no thanks")
}

type failingLedger struct{}

func (failingLedger) MintBatch(operator, to [20]byte, ids []uint64, values []*big.Int, data []byte) error {
	return fmt.Errorf("ledger unavailable")
}

func newTestMinter(t *testing.T) (*BatchMinter, *Registry, *token.Ledger, *recordingEmitter) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	registry := NewRegistry(manager)
	ledger := token.NewLedger(manager)
	minter := NewBatchMinter(registry, ledger)
	emitter := &recordingEmitter{}
	registry.SetEmitter(emitter)
	ledger.SetEmitter(emitter)
	minter.SetEmitter(emitter)
	return minter, registry, ledger, emitter
}

func amounts(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestMintBatchWithRoyaltiesSuccess(t *testing.T) {
	minter, registry, ledger, emitter := newTestMinter(t)
	operator := [20]byte{0x01}
	receiver := [20]byte{0x02}
	owner := [20]byte{0x03}

	err := minter.MintBatchWithRoyalties(operator, receiver, owner,
		[]uint64{3, 4, 5}, amounts(200, 1000, 42), []uint32{100, 300, 400}, nil)
	if err != nil {
		t.Fatalf("mint batch: %v", err)
	}

	salePrice := big.NewInt(1000)
	for _, tc := range []struct {
		id     uint64
		amount int64
	}{
		{3, 10},
		{4, 30},
		{5, 40},
	} {
		gotReceiver, gotAmount := registry.RoyaltyInfo(tc.id, salePrice)
		if gotReceiver != receiver {
			t.Fatalf("token %d: unexpected receiver %x", tc.id, gotReceiver)
		}
		if gotAmount.Cmp(big.NewInt(tc.amount)) != 0 {
			t.Fatalf("token %d: expected amount %d, got %s", tc.id, tc.amount, gotAmount)
		}
	}

	balance, err := ledger.BalanceOf(owner, 4)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected balance 1000, got %s", balance)
	}

	var sawLedger, sawCombined bool
	for _, eventType := range emitter.types() {
		switch eventType {
		case events.TypeTokenBatchMinted:
			sawLedger = true
		case events.TypeRoyaltyBatchMinted:
			if !sawLedger {
				t.Fatalf("combined event emitted before ledger event")
			}
			sawCombined = true
		}
	}
	if !sawLedger || !sawCombined {
		t.Fatalf("expected ledger and combined events, got %v", emitter.types())
	}
}

func TestMintBatchLengthMismatch(t *testing.T) {
	minter, registry, ledger, _ := newTestMinter(t)
	operator := [20]byte{0x01}
	receiver := [20]byte{0x02}
	owner := [20]byte{0x03}

	err := minter.MintBatchWithRoyalties(operator, receiver, owner,
		[]uint64{3, 4, 5}, amounts(1, 1, 1), []uint32{100, 300}, nil)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "ids=3") || !strings.Contains(err.Error(), "royalties=2") {
		t.Fatalf("error should carry both lengths: %v", err)
	}

	for _, id := range []uint64{3, 4, 5} {
		if _, ok := registry.TokenRoyalty(id); ok {
			t.Fatalf("token %d: override must not exist after failed mint", id)
		}
		exists, lookupErr := ledger.Exists(id)
		if lookupErr != nil {
			t.Fatalf("exists: %v", lookupErr)
		}
		if exists {
			t.Fatalf("token %d: must not exist after failed mint", id)
		}
	}
}

func TestMintBatchReceiverRejectionRollsBack(t *testing.T) {
	minter, registry, ledger, _ := newTestMinter(t)
	ledger.SetReceiverHook(rejectingHook{})
	operator := [20]byte{0x01}
	receiver := [20]byte{0x02}
	owner := [20]byte{0x03}

	err := minter.MintBatchWithRoyalties(operator, receiver, owner,
		[]uint64{1, 2}, amounts(5, 5), []uint32{100, 200}, nil)
	if !errors.Is(err, token.ErrReceiverRejected) {
		t.Fatalf("expected ErrReceiverRejected, got %v", err)
	}
	for _, id := range []uint64{1, 2} {
		if _, ok := registry.TokenRoyalty(id); ok {
			t.Fatalf("token %d: override persisted despite rejection", id)
		}
		balance, lookupErr := ledger.BalanceOf(owner, id)
		if lookupErr != nil {
			t.Fatalf("balance: %v", lookupErr)
		}
		if balance.Sign() != 0 {
			t.Fatalf("token %d: balance persisted despite rejection", id)
		}
	}
}

func TestMintBatchLedgerShapeErrorPropagates(t *testing.T) {
	minter, registry, _, _ := newTestMinter(t)
	operator := [20]byte{0x01}
	receiver := [20]byte{0x02}
	owner := [20]byte{0x03}

	// ids/values mismatch is the ledger's own precondition.
	err := minter.MintBatchWithRoyalties(operator, receiver, owner,
		[]uint64{1, 2}, amounts(5), []uint32{100, 200}, nil)
	if !errors.Is(err, token.ErrLengthMismatch) {
		t.Fatalf("expected token.ErrLengthMismatch, got %v", err)
	}
	if _, ok := registry.TokenRoyalty(1); ok {
		t.Fatalf("override persisted despite ledger failure")
	}
}

func TestMintBatchInvalidFeeFailsBeforeLedger(t *testing.T) {
	minter, registry, ledger, _ := newTestMinter(t)
	operator := [20]byte{0x01}
	receiver := [20]byte{0x02}
	owner := [20]byte{0x03}

	err := minter.MintBatchWithRoyalties(operator, receiver, owner,
		[]uint64{1, 2}, amounts(5, 5), []uint32{100, 10001}, nil)
	if !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
	for _, id := range []uint64{1, 2} {
		exists, lookupErr := ledger.Exists(id)
		if lookupErr != nil {
			t.Fatalf("exists: %v", lookupErr)
		}
		if exists {
			t.Fatalf("token %d: ledger mutated despite validation failure", id)
		}
		if _, ok := registry.TokenRoyalty(id); ok {
			t.Fatalf("token %d: override persisted despite validation failure", id)
		}
	}
}

func TestMintBatchExternalLedgerFailure(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	registry := NewRegistry(manager)
	minter := NewBatchMinter(registry, failingLedger{})

	err := minter.MintBatchWithRoyalties([20]byte{0x01}, [20]byte{0x02}, [20]byte{0x03},
		[]uint64{1}, amounts(5), []uint32{100}, nil)
	if err == nil || !strings.Contains(err.Error(), "ledger unavailable") {
		t.Fatalf("expected ledger failure to propagate, got %v", err)
	}
	if _, ok := registry.TokenRoyalty(1); ok {
		t.Fatalf("override persisted despite ledger failure")
	}
}

func TestOverrideSurvivesBurnAndRecreate(t *testing.T) {
	minter, registry, ledger, _ := newTestMinter(t)
	operator := [20]byte{0x01}
	receiver := [20]byte{0x02}
	owner := [20]byte{0x03}

	if err := minter.MintBatchWithRoyalties(operator, receiver, owner,
		[]uint64{12}, amounts(7), []uint32{400}, nil); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := ledger.Burn(operator, owner, 12, big.NewInt(7)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	exists, err := ledger.Exists(12)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("token should not exist after full burn")
	}

	gotReceiver, gotAmount := registry.RoyaltyInfo(12, big.NewInt(1000))
	if gotReceiver != receiver || gotAmount.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("royalty changed after burn: receiver=%x amount=%s", gotReceiver, gotAmount)
	}

	// Recreating the same id through a plain mint leaves the term untouched.
	if err := ledger.Mint(operator, owner, 12, big.NewInt(3), nil); err != nil {
		t.Fatalf("recreate: %v", err)
	}
	gotReceiver, gotAmount = registry.RoyaltyInfo(12, big.NewInt(1000))
	if gotReceiver != receiver || gotAmount.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("royalty changed after recreate: receiver=%x amount=%s", gotReceiver, gotAmount)
	}
}

// A reader racing a batch mint must never see an override whose token the
// ledger does not know about: overrides commit strictly after creation.
func TestConcurrentReadersNeverSeeOrphanOverride(t *testing.T) {
	minter, registry, ledger, _ := newTestMinter(t)
	operator := [20]byte{0x01}
	receiver := [20]byte{0x02}
	owner := [20]byte{0x03}

	const rounds = 200
	stop := make(chan struct{})
	finished := make(chan struct{})
	var readerErr error
	var once sync.Once

	go func() {
		defer close(finished)
		for {
			select {
			case <-stop:
				return
			default:
			}
			for id := uint64(1); id <= rounds; id++ {
				if _, ok := registry.TokenRoyalty(id); !ok {
					continue
				}
				exists, err := ledger.Exists(id)
				if err != nil {
					once.Do(func() { readerErr = err })
					return
				}
				if !exists {
					once.Do(func() { readerErr = fmt.Errorf("token %d: override visible before ledger entry", id) })
					return
				}
			}
		}
	}()

	for id := uint64(1); id <= rounds; id++ {
		if err := minter.MintBatchWithRoyalties(operator, receiver, owner,
			[]uint64{id}, amounts(1), []uint32{100}, nil); err != nil {
			t.Fatalf("mint %d: %v", id, err)
		}
	}
	close(stop)
	<-finished
	if readerErr != nil {
		t.Fatal(readerErr)
	}
}
