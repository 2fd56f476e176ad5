/*
SPDX-License-Identifier: Apache-2.0
*/

// Package ledger implements the halal supply chain state machine: the user
// registry, the batch lifecycle, certification and the per-batch audit trail.
// All state lives in a WorldState, one Ledger per transaction.
package ledger

import (
	"strings"

	"go.uber.org/zap"
)

// Ledger applies operations against one transaction's world state. It holds
// no state of its own; atomicity is the world state's job.
type Ledger struct {
	state  WorldState
	logger *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger operations report to; nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a Ledger over state.
func New(state WorldState, opts ...Option) *Ledger {
	l := &Ledger{state: state, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) log(caller string) *zap.Logger {
	return l.logger.With(zap.String("tx", l.state.GetTxID()), zap.String("caller", caller))
}

func (l *Ledger) rejected(op Operation, caller string, err error) error {
	if _, ok := CodeOf(err); ok {
		l.log(caller).Debug("operation rejected", zap.String("op", string(op)), zap.Error(err))
	}
	return err
}

// Init makes admin the single administrator. It can run once per ledger.
func (l *Ledger) Init(admin string) error {
	admin = strings.TrimSpace(admin)
	if admin == "" {
		return newError(CodeInvalidInput, "admin address is required")
	}
	existing, err := l.state.GetState(adminKey)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyInitialized
	}
	if err := l.state.PutState(adminKey, []byte(admin)); err != nil {
		return err
	}
	if err := l.putJSON(userPrefix+admin, User{Address: admin, Name: "Admin", Role: RoleAdmin, IsActive: true}); err != nil {
		return err
	}
	l.log(admin).Info("ledger initialized")
	return nil
}

// Admin returns the administrator address, or "" before Init.
func (l *Ledger) Admin() (string, error) {
	b, err := l.state.GetState(adminKey)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RegisterUser lets the admin give address one supply chain role.
func (l *Ledger) RegisterUser(caller, address, name string, role Role) error {
	if _, err := l.authorize(caller, OpRegisterUser); err != nil {
		return l.rejected(OpRegisterUser, caller, err)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return l.rejected(OpRegisterUser, caller, newError(CodeInvalidInput, "user address is required"))
	}
	if !role.Assignable() {
		return l.rejected(OpRegisterUser, caller, newError(CodeInvalidRole, "role %s cannot be assigned", role))
	}

	var existing User
	found, err := l.getJSON(userPrefix+address, &existing)
	if err != nil {
		return err
	}
	if found && existing.IsActive && existing.Role != RoleNone {
		return l.rejected(OpRegisterUser, caller, newError(CodeDuplicateRegistration, "User already registered: %s", address))
	}

	u := User{Address: address, Name: name, Role: role, IsActive: true}
	if err := l.putJSON(userPrefix+address, u); err != nil {
		return err
	}
	if err := l.emit(EventUserRegistered, UserRegistered{UserAddress: address, Name: name, Role: role}); err != nil {
		return err
	}
	l.log(caller).Info("user registered", zap.String("user", address), zap.Stringer("role", role))
	return nil
}

// DeactivateUser lets the admin switch off a participant. The record is kept.
func (l *Ledger) DeactivateUser(caller, address string) error {
	if _, err := l.authorize(caller, OpDeactivateUser); err != nil {
		return l.rejected(OpDeactivateUser, caller, err)
	}
	var u User
	found, err := l.getJSON(userPrefix+address, &u)
	if err != nil {
		return err
	}
	if !found || !u.IsActive {
		return l.rejected(OpDeactivateUser, caller, newError(CodeNotRegistered, "no active user at %s", address))
	}
	if u.Role == RoleAdmin {
		return l.rejected(OpDeactivateUser, caller, newError(CodeInvalidRole, "the admin account cannot be deactivated"))
	}

	u.IsActive = false
	if err := l.putJSON(userPrefix+address, u); err != nil {
		return err
	}
	if err := l.emit(EventUserDeactivated, UserDeactivated{UserAddress: address}); err != nil {
		return err
	}
	l.log(caller).Info("user deactivated", zap.String("user", address))
	return nil
}

// GetUser returns the record for address. Unknown addresses yield a zero
// record with RoleNone, the way the dApp reads an unregistered wallet.
func (l *Ledger) GetUser(address string) (*User, error) {
	var u User
	found, err := l.getJSON(userPrefix+address, &u)
	if err != nil {
		return nil, err
	}
	if !found {
		return &User{Address: address}, nil
	}
	return &u, nil
}
