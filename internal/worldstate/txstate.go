package worldstate

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

var ErrReadOnly = errors.New("world state is read-only in a query")

// txState is the ledger.WorldState of one SQL transaction.
type txState struct {
	ctx      context.Context
	tx       *sql.Tx
	txID     string
	ts       *timestamppb.Timestamp
	readOnly bool
	event    *ledger.Event
}

var _ ledger.WorldState = (*txState)(nil)

func newTxState(ctx context.Context, tx *sql.Tx, now time.Time, readOnly bool) *txState {
	return &txState{
		ctx:      ctx,
		tx:       tx,
		txID:     uuid.NewString(),
		ts:       timestamppb.New(now),
		readOnly: readOnly,
	}
}

func (s *txState) GetTxID() string { return s.txID }

func (s *txState) GetTxTimestamp() (*timestamppb.Timestamp, error) { return s.ts, nil }

// GetState returns nil for a missing key, like the Fabric stub.
func (s *txState) GetState(key string) ([]byte, error) {
	var value []byte
	err := s.tx.QueryRowContext(s.ctx, `SELECT value FROM world_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not get state %s", key)
	}
	return value, nil
}

func (s *txState) PutState(key string, value []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if key == "" {
		return errors.New("key must not be an empty string")
	}
	_, err := s.tx.ExecContext(s.ctx,
		`INSERT INTO world_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return errors.Wrapf(err, "could not put state %s", key)
}

// GetStateByRange returns the keys in [startKey, endKey) in key order. An
// empty endKey leaves the range open.
func (s *txState) GetStateByRange(startKey, endKey string) (shim.StateQueryIteratorInterface, error) {
	query := `SELECT key, value FROM world_state WHERE key >= ? AND key < ? ORDER BY key`
	args := []any{startKey, endKey}
	if endKey == "" {
		query = `SELECT key, value FROM world_state WHERE key >= ? ORDER BY key`
		args = args[:1]
	}

	rows, err := s.tx.QueryContext(s.ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "could not query range")
	}
	defer func() { _ = rows.Close() }()

	// rows are drained up front so callers may read state while iterating
	it := &rangeIterator{}
	for rows.Next() {
		kv := &queryresult.KV{}
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, errors.Wrap(err, "could not scan range row")
		}
		it.kvs = append(it.kvs, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "could not iterate range")
	}
	return it, nil
}

// SetEvent replaces any earlier event of the transaction, as on a peer.
func (s *txState) SetEvent(name string, payload []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if name == "" {
		return errors.New("event name can not be empty string")
	}
	s.event = &ledger.Event{TxID: s.txID, Name: name, Payload: append([]byte(nil), payload...)}
	return nil
}

type rangeIterator struct {
	kvs    []*queryresult.KV
	next   int
	closed bool
}

func (it *rangeIterator) HasNext() bool {
	return !it.closed && it.next < len(it.kvs)
}

func (it *rangeIterator) Next() (*queryresult.KV, error) {
	if !it.HasNext() {
		return nil, errors.New("iterator exhausted")
	}
	kv := it.kvs[it.next]
	it.next++
	return kv, nil
}

func (it *rangeIterator) Close() error {
	it.closed = true
	return nil
}
