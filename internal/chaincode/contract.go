/*
SPDX-License-Identifier: Apache-2.0
*/

// Package chaincode exposes the halal supply chain ledger as a Hyperledger
// Fabric contract.
package chaincode

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

// ContractName is the namespace the contract is registered under.
const ContractName = "HalalSupplyChain"

// addressAttribute is the enrollment attribute carrying a participant's
// ledger address. Identities without it are addressed by their client ID.
const addressAttribute = "address"

// SmartContract provides functions for managing the halal supply chain
type SmartContract struct {
	contractapi.Contract
	logger *zap.Logger
}

// NewSmartContract returns the contract, logging through logger when given
func NewSmartContract(logger *zap.Logger) *SmartContract {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SmartContract{
		Contract: contractapi.Contract{Name: ContractName},
		logger:   logger,
	}
}

// InitLedger makes the invoking identity the ledger's only admin
func (s *SmartContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.ledgerFor(ctx).Init(caller)
}

// RegisterUser lets the admin register a participant with one role
func (s *SmartContract) RegisterUser(ctx contractapi.TransactionContextInterface, address, name string, role uint8) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.ledgerFor(ctx).RegisterUser(caller, address, name, ledger.Role(role))
}

// DeactivateUser lets the admin switch off a participant
func (s *SmartContract) DeactivateUser(ctx contractapi.TransactionContextInterface, address string) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.ledgerFor(ctx).DeactivateUser(caller, address)
}

// CreateBatch lets a farmer register a new batch and returns its id
func (s *SmartContract) CreateBatch(ctx contractapi.TransactionContextInterface, animalType string, quantity int64) (uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return 0, err
	}
	return s.ledgerFor(ctx).CreateBatch(caller, animalType, quantity)
}

// UpdateBatchStatus moves a batch to its next lifecycle stage
func (s *SmartContract) UpdateBatchStatus(ctx contractapi.TransactionContextInterface, batchID uint64, newStatus uint8, location string) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.ledgerFor(ctx).UpdateBatchStatus(caller, batchID, ledger.BatchStatus(newStatus), location)
}

// RequestHalalCertification lets a slaughterhouse open the batch's certificate
func (s *SmartContract) RequestHalalCertification(ctx contractapi.TransactionContextInterface, batchID uint64) (uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return 0, err
	}
	return s.ledgerFor(ctx).RequestHalalCertification(caller, batchID)
}

// ApproveCertificate lets the certifier approve a pending certificate
func (s *SmartContract) ApproveCertificate(ctx contractapi.TransactionContextInterface, certID uint64, comments string) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.ledgerFor(ctx).ApproveCertificate(caller, certID, comments)
}

// RejectCertificate lets the certifier reject a pending certificate
func (s *SmartContract) RejectCertificate(ctx contractapi.TransactionContextInterface, certID uint64, reason string) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	return s.ledgerFor(ctx).RejectCertificate(caller, certID, reason)
}

// GetUserDetails returns the participant at address; unknown addresses have no role
func (s *SmartContract) GetUserDetails(ctx contractapi.TransactionContextInterface, address string) (*ledger.User, error) {
	return s.ledgerFor(ctx).GetUser(address)
}

// GetBatchDetails returns an existing batch
func (s *SmartContract) GetBatchDetails(ctx contractapi.TransactionContextInterface, batchID uint64) (*ledger.Batch, error) {
	return s.ledgerFor(ctx).GetBatch(batchID)
}

// GetCertificateDetails returns an existing certificate
func (s *SmartContract) GetCertificateDetails(ctx contractapi.TransactionContextInterface, certID uint64) (*ledger.Certificate, error) {
	return s.ledgerFor(ctx).GetCertificate(certID)
}

// GetSupplyChainHistory returns the audit trail of a batch, oldest first
func (s *SmartContract) GetSupplyChainHistory(ctx contractapi.TransactionContextInterface, batchID uint64) ([]ledger.SupplyChainRecord, error) {
	return s.ledgerFor(ctx).History(batchID)
}

// IsHalalCertified reports whether the batch holds an approved certificate
func (s *SmartContract) IsHalalCertified(ctx contractapi.TransactionContextInterface, batchID uint64) (bool, error) {
	return s.ledgerFor(ctx).IsHalalCertified(batchID)
}

// GetBatchCertificate returns the batch's certificate id, 0 when none was requested
func (s *SmartContract) GetBatchCertificate(ctx contractapi.TransactionContextInterface, batchID uint64) (uint64, error) {
	return s.ledgerFor(ctx).BatchCertificate(batchID)
}

// GetAdmin returns the admin address set by InitLedger
func (s *SmartContract) GetAdmin(ctx contractapi.TransactionContextInterface) (string, error) {
	return s.ledgerFor(ctx).Admin()
}

// GetBatchCount returns the number of batches created
func (s *SmartContract) GetBatchCount(ctx contractapi.TransactionContextInterface) (uint64, error) {
	return s.ledgerFor(ctx).BatchCount()
}

// GetCertificateCount returns the number of certificates requested
func (s *SmartContract) GetCertificateCount(ctx contractapi.TransactionContextInterface) (uint64, error) {
	return s.ledgerFor(ctx).CertificateCount()
}

// GetBatchesByFarmer backs the farmer's "my batches" view
func (s *SmartContract) GetBatchesByFarmer(ctx contractapi.TransactionContextInterface, farmer string) ([]ledger.Batch, error) {
	return s.ledgerFor(ctx).BatchesByFarmer(farmer)
}

// GetPendingCertificates backs the certifier's review queue
func (s *SmartContract) GetPendingCertificates(ctx contractapi.TransactionContextInterface) ([]ledger.Certificate, error) {
	return s.ledgerFor(ctx).PendingCertificates()
}

func (s *SmartContract) ledgerFor(ctx contractapi.TransactionContextInterface) *ledger.Ledger {
	return ledger.New(ctx.GetStub(), ledger.WithLogger(s.logger))
}

// caller resolves the invoking identity to a ledger address
func (s *SmartContract) caller(ctx contractapi.TransactionContextInterface) (string, error) {
	ci := ctx.GetClientIdentity()
	if ci == nil {
		return "", fmt.Errorf("no client identity in transaction context")
	}
	addr, found, err := ci.GetAttributeValue(addressAttribute)
	if err != nil {
		return "", fmt.Errorf("failed to read %s attribute: %v", addressAttribute, err)
	}
	if found && addr != "" {
		return addr, nil
	}
	id, err := ci.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to read client identity: %v", err)
	}
	return id, nil
}
