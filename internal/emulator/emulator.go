/*
SPDX-License-Identifier: Apache-2.0
*/

// Package emulator runs the halal supply chain ledger off-chain on the
// SQLite world state. Each call is one atomic transaction; its notification
// is published on the store's broker once committed.
package emulator

import (
	"context"

	"go.uber.org/zap"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/worldstate"
)

type Emulator struct {
	store  *worldstate.Store
	logger *zap.Logger
}

func New(store *worldstate.Store, logger *zap.Logger) *Emulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emulator{store: store, logger: logger}
}

// Subscribe delivers every notification committed after the call.
func (e *Emulator) Subscribe(buffer int) (<-chan ledger.Event, func()) {
	return e.store.Broker().Subscribe(buffer)
}

func (e *Emulator) update(ctx context.Context, fn func(*ledger.Ledger) error) error {
	return e.store.Update(ctx, func(ws ledger.WorldState) error {
		return fn(ledger.New(ws, ledger.WithLogger(e.logger)))
	})
}

func query[T any](ctx context.Context, e *Emulator, fn func(*ledger.Ledger) (T, error)) (T, error) {
	var out T
	err := e.store.View(ctx, func(ws ledger.WorldState) error {
		var err error
		out, err = fn(ledger.New(ws, ledger.WithLogger(e.logger)))
		return err
	})
	return out, err
}

func (e *Emulator) Init(ctx context.Context, admin string) error {
	return e.update(ctx, func(l *ledger.Ledger) error { return l.Init(admin) })
}

func (e *Emulator) Admin(ctx context.Context) (string, error) {
	return query(ctx, e, (*ledger.Ledger).Admin)
}

func (e *Emulator) RegisterUser(ctx context.Context, caller, address, name string, role ledger.Role) error {
	return e.update(ctx, func(l *ledger.Ledger) error { return l.RegisterUser(caller, address, name, role) })
}

func (e *Emulator) DeactivateUser(ctx context.Context, caller, address string) error {
	return e.update(ctx, func(l *ledger.Ledger) error { return l.DeactivateUser(caller, address) })
}

func (e *Emulator) GetUser(ctx context.Context, address string) (*ledger.User, error) {
	return query(ctx, e, func(l *ledger.Ledger) (*ledger.User, error) { return l.GetUser(address) })
}

func (e *Emulator) CreateBatch(ctx context.Context, caller, animalType string, quantity int64) (uint64, error) {
	var id uint64
	err := e.update(ctx, func(l *ledger.Ledger) (err error) {
		id, err = l.CreateBatch(caller, animalType, quantity)
		return err
	})
	return id, err
}

func (e *Emulator) UpdateBatchStatus(ctx context.Context, caller string, batchID uint64, status ledger.BatchStatus, location string) error {
	return e.update(ctx, func(l *ledger.Ledger) error {
		return l.UpdateBatchStatus(caller, batchID, status, location)
	})
}

func (e *Emulator) GetBatch(ctx context.Context, batchID uint64) (*ledger.Batch, error) {
	return query(ctx, e, func(l *ledger.Ledger) (*ledger.Batch, error) { return l.GetBatch(batchID) })
}

func (e *Emulator) History(ctx context.Context, batchID uint64) ([]ledger.SupplyChainRecord, error) {
	return query(ctx, e, func(l *ledger.Ledger) ([]ledger.SupplyChainRecord, error) { return l.History(batchID) })
}

func (e *Emulator) BatchCount(ctx context.Context) (uint64, error) {
	return query(ctx, e, (*ledger.Ledger).BatchCount)
}

func (e *Emulator) BatchesByFarmer(ctx context.Context, farmer string) ([]ledger.Batch, error) {
	return query(ctx, e, func(l *ledger.Ledger) ([]ledger.Batch, error) { return l.BatchesByFarmer(farmer) })
}

func (e *Emulator) RequestHalalCertification(ctx context.Context, caller string, batchID uint64) (uint64, error) {
	var id uint64
	err := e.update(ctx, func(l *ledger.Ledger) (err error) {
		id, err = l.RequestHalalCertification(caller, batchID)
		return err
	})
	return id, err
}

func (e *Emulator) ApproveCertificate(ctx context.Context, caller string, certID uint64, comments string) error {
	return e.update(ctx, func(l *ledger.Ledger) error { return l.ApproveCertificate(caller, certID, comments) })
}

func (e *Emulator) RejectCertificate(ctx context.Context, caller string, certID uint64, reason string) error {
	return e.update(ctx, func(l *ledger.Ledger) error { return l.RejectCertificate(caller, certID, reason) })
}

func (e *Emulator) GetCertificate(ctx context.Context, certID uint64) (*ledger.Certificate, error) {
	return query(ctx, e, func(l *ledger.Ledger) (*ledger.Certificate, error) { return l.GetCertificate(certID) })
}

func (e *Emulator) BatchCertificate(ctx context.Context, batchID uint64) (uint64, error) {
	return query(ctx, e, func(l *ledger.Ledger) (uint64, error) { return l.BatchCertificate(batchID) })
}

func (e *Emulator) IsHalalCertified(ctx context.Context, batchID uint64) (bool, error) {
	return query(ctx, e, func(l *ledger.Ledger) (bool, error) { return l.IsHalalCertified(batchID) })
}

func (e *Emulator) CertificateCount(ctx context.Context) (uint64, error) {
	return query(ctx, e, (*ledger.Ledger).CertificateCount)
}

func (e *Emulator) PendingCertificates(ctx context.Context) ([]ledger.Certificate, error) {
	return query(ctx, e, (*ledger.Ledger).PendingCertificates)
}

// Verification is what a consumer sees when checking a product.
type Verification struct {
	Batch          ledger.Batch               `json:"batch"`
	HalalCertified bool                       `json:"halalCertified"`
	Certificate    *ledger.Certificate        `json:"certificate,omitempty"`
	History        []ledger.SupplyChainRecord `json:"history"`
}

// Verify reads batch, certificate and history from one consistent snapshot.
func (e *Emulator) Verify(ctx context.Context, batchID uint64) (*Verification, error) {
	return query(ctx, e, func(l *ledger.Ledger) (*Verification, error) {
		b, err := l.GetBatch(batchID)
		if err != nil {
			return nil, err
		}
		v := &Verification{Batch: *b}
		if v.HalalCertified, err = l.IsHalalCertified(batchID); err != nil {
			return nil, err
		}
		certID, err := l.BatchCertificate(batchID)
		if err != nil {
			return nil, err
		}
		if certID != 0 {
			if v.Certificate, err = l.GetCertificate(certID); err != nil {
				return nil, err
			}
		}
		if v.History, err = l.History(batchID); err != nil {
			return nil, err
		}
		return v, nil
	})
}
