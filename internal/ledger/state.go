package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// WorldState is the part of a chaincode stub the ledger needs. A Fabric
// shim.ChaincodeStubInterface satisfies it directly; the embedded SQLite
// world state implements it for off-chain use.
type WorldState interface {
	GetTxID() string
	GetTxTimestamp() (*timestamppb.Timestamp, error)
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	GetStateByRange(startKey, endKey string) (shim.StateQueryIteratorInterface, error)
	SetEvent(name string, payload []byte) error
}

const (
	adminKey        = "ADMIN"
	userPrefix      = "USER_"
	batchPrefix     = "BATCH_"
	certPrefix      = "CERT_"
	batchCertPrefix = "BATCHCERT_"
	historyPrefix   = "HISTORY_"
	seqPrefix       = "SEQ_"

	seqBatch   = "BATCH"
	seqCert    = "CERT"
	seqHistory = "HISTORY_"
)

func idKey(prefix string, id uint64) string {
	return fmt.Sprintf("%s%020d", prefix, id)
}

func historyBatchPrefix(batchID uint64) string {
	return fmt.Sprintf("%s%020d_", historyPrefix, batchID)
}

func historyKey(batchID, seq uint64) string {
	return fmt.Sprintf("%s%020d", historyBatchPrefix(batchID), seq)
}

// getJSON reads key into v and reports whether the key was present.
func (l *Ledger) getJSON(key string, v any) (bool, error) {
	b, err := l.state.GetState(key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if b == nil {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (l *Ledger) putJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := l.state.PutState(key, b); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (l *Ledger) sequence(name string) (uint64, error) {
	b, err := l.state.GetState(seqPrefix + name)
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", name, err)
	}
	if b == nil {
		return 0, nil
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt sequence %s: %w", name, err)
	}
	return n, nil
}

// nextSequence increments the named counter and returns the new value; the
// first value handed out is 1.
func (l *Ledger) nextSequence(name string) (uint64, error) {
	n, err := l.sequence(name)
	if err != nil {
		return 0, err
	}
	n++
	if err := l.state.PutState(seqPrefix+name, []byte(strconv.FormatUint(n, 10))); err != nil {
		return 0, fmt.Errorf("failed to write sequence %s: %w", name, err)
	}
	return n, nil
}

// scan calls fn with every value stored under prefix, in key order.
func (l *Ledger) scan(prefix string, fn func(value []byte) error) error {
	iter, err := l.state.GetStateByRange(prefix, prefix+"~")
	if err != nil {
		return fmt.Errorf("failed to get %s by range: %w", prefix, err)
	}
	defer iter.Close()

	for iter.HasNext() {
		kv, err := iter.Next()
		if err != nil {
			return fmt.Errorf("failed during %s iteration: %w", prefix, err)
		}
		if err := fn(kv.Value); err != nil {
			return err
		}
	}
	return nil
}

// now is the transaction timestamp in Unix seconds. Every endorsing peer
// sees the same value, unlike the local clock.
func (l *Ledger) now() (int64, error) {
	ts, err := l.state.GetTxTimestamp()
	if err != nil {
		return 0, fmt.Errorf("failed to read transaction timestamp: %w", err)
	}
	if ts == nil {
		return 0, nil
	}
	return ts.GetSeconds(), nil
}

func (l *Ledger) emit(name string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", name, err)
	}
	if err := l.state.SetEvent(name, b); err != nil {
		return fmt.Errorf("failed to set %s event: %w", name, err)
	}
	return nil
}
