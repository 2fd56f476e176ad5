package ledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// farmLocation is recorded for the creation entry; the farmer never names one.
const farmLocation = "Farm"

// CreateBatch lets a farmer register a new batch and returns its id.
func (l *Ledger) CreateBatch(caller, animalType string, quantity int64) (uint64, error) {
	if _, err := l.authorize(caller, OpCreateBatch); err != nil {
		return 0, l.rejected(OpCreateBatch, caller, err)
	}
	if quantity <= 0 {
		return 0, l.rejected(OpCreateBatch, caller, ErrInvalidQuantity)
	}
	animalType = strings.TrimSpace(animalType)
	if animalType == "" {
		return 0, l.rejected(OpCreateBatch, caller, newError(CodeInvalidInput, "animal type is required"))
	}

	now, err := l.now()
	if err != nil {
		return 0, err
	}
	id, err := l.nextSequence(seqBatch)
	if err != nil {
		return 0, err
	}
	batch := Batch{
		BatchID:    id,
		Farmer:     caller,
		AnimalType: animalType,
		Quantity:   quantity,
		CreatedAt:  now,
		Status:     StatusCreated,
		Exists:     true,
	}
	if err := l.putJSON(idKey(batchPrefix, id), batch); err != nil {
		return 0, err
	}
	rec, err := l.appendRecord(id, caller, "Batch created", farmLocation, now)
	if err != nil {
		return 0, err
	}
	if err := l.emit(EventBatchCreated, BatchCreated{BatchID: id, Farmer: caller, AnimalType: animalType, Quantity: quantity, Record: rec}); err != nil {
		return 0, err
	}
	l.log(caller).Info("batch created", zap.Uint64("batch", id), zap.String("animal", animalType), zap.Int64("quantity", quantity))
	return id, nil
}

// UpdateBatchStatus moves a batch one step along the lifecycle. Checks run in
// a fixed order: caller account and supply chain role, batch existence, legal
// successor, step role, then the certificate requirement for Processed.
func (l *Ledger) UpdateBatchStatus(caller string, batchID uint64, newStatus BatchStatus, location string) error {
	u, err := l.authorize(caller, OpUpdateBatchStatus)
	if err != nil {
		return l.rejected(OpUpdateBatchStatus, caller, err)
	}
	batch, err := l.loadBatch(batchID)
	if err != nil {
		return l.rejected(OpUpdateBatchStatus, caller, err)
	}
	next, ok := batch.Status.Next()
	if !ok || next != newStatus {
		return l.rejected(OpUpdateBatchStatus, caller, newError(CodeInvalidTransition,
			"batch %d cannot move from %s to %s", batchID, batch.Status, newStatus))
	}
	step := transitions[newStatus]
	if u.Role != step.role {
		return l.rejected(OpUpdateBatchStatus, caller, newError(CodeUnauthorizedRole,
			"Unauthorized role: only %s can mark a batch %s", step.role, newStatus))
	}
	if step.needsCertificate {
		certified, err := l.IsHalalCertified(batchID)
		if err != nil {
			return err
		}
		if !certified {
			return l.rejected(OpUpdateBatchStatus, caller, ErrCertificateNotApproved)
		}
	}

	now, err := l.now()
	if err != nil {
		return err
	}
	batch.Status = newStatus
	if err := l.putJSON(idKey(batchPrefix, batchID), batch); err != nil {
		return err
	}
	rec, err := l.appendRecord(batchID, caller, step.action, location, now)
	if err != nil {
		return err
	}
	if err := l.emit(EventBatchStatusUpdated, BatchStatusUpdated{BatchID: batchID, NewStatus: newStatus, UpdatedBy: caller, Record: rec}); err != nil {
		return err
	}
	l.log(caller).Info("batch status updated", zap.Uint64("batch", batchID), zap.Stringer("status", newStatus), zap.String("location", location))
	return nil
}

func (l *Ledger) appendRecord(batchID uint64, actor, action, location string, at int64) (SupplyChainRecord, error) {
	seq, err := l.nextSequence(idKey(seqHistory, batchID))
	if err != nil {
		return SupplyChainRecord{}, err
	}
	rec := SupplyChainRecord{Actor: actor, Action: action, Timestamp: at, Location: location}
	if err := l.putJSON(historyKey(batchID, seq), rec); err != nil {
		return SupplyChainRecord{}, err
	}
	return rec, nil
}

func (l *Ledger) loadBatch(batchID uint64) (*Batch, error) {
	var b Batch
	found, err := l.getJSON(idKey(batchPrefix, batchID), &b)
	if err != nil {
		return nil, err
	}
	if !found || !b.Exists {
		return nil, newError(CodeBatchNotFound, "Batch does not exist: %d", batchID)
	}
	return &b, nil
}

// GetBatch returns the batch with batchID or BatchNotFound.
func (l *Ledger) GetBatch(batchID uint64) (*Batch, error) {
	return l.loadBatch(batchID)
}

// History returns the audit trail of a batch in append order. An unknown
// batch has an empty trail.
func (l *Ledger) History(batchID uint64) ([]SupplyChainRecord, error) {
	records := []SupplyChainRecord{}
	err := l.scan(historyBatchPrefix(batchID), func(value []byte) error {
		var rec SupplyChainRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal history of batch %d: %w", batchID, err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// BatchCount is the highest batch id handed out so far.
func (l *Ledger) BatchCount() (uint64, error) {
	return l.sequence(seqBatch)
}

// BatchesByFarmer lists the batches farmer created, in id order.
func (l *Ledger) BatchesByFarmer(farmer string) ([]Batch, error) {
	batches := []Batch{}
	err := l.scan(batchPrefix, func(value []byte) error {
		var b Batch
		if err := json.Unmarshal(value, &b); err != nil {
			return fmt.Errorf("failed to unmarshal batch: %w", err)
		}
		if b.Exists && b.Farmer == farmer {
			batches = append(batches, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batches, nil
}
