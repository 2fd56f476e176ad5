/*
SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Role is the single role an address holds in the supply chain.
type Role uint8

const (
	RoleNone Role = iota
	RoleAdmin
	RoleFarmer
	RoleSlaughterhouse
	RoleProcessor
	RoleDistributor
	RoleRetailer
	RoleCertifier
	RoleConsumer
)

var roleNames = [...]string{"None", "Admin", "Farmer", "Slaughterhouse", "Processor", "Distributor", "Retailer", "Certifier", "Consumer"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "Unknown"
}

// Assignable reports whether the admin may hand out r through RegisterUser.
func (r Role) Assignable() bool {
	return r >= RoleFarmer && r <= RoleConsumer
}

// ParseRole accepts a role name (case-insensitive, "jakim" is an alias of
// Certifier) or its numeric value.
func ParseRole(s string) (Role, error) {
	key := normalize(s)
	if key == "jakim" {
		return RoleCertifier, nil
	}
	for i, name := range roleNames {
		if normalize(name) == key {
			return Role(i), nil
		}
	}
	if n, err := strconv.ParseUint(key, 10, 8); err == nil && int(n) < len(roleNames) {
		return Role(n), nil
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

// BatchStatus is a lifecycle stage. Stages advance strictly in declaration
// order; Sold is terminal.
type BatchStatus uint8

const (
	StatusCreated BatchStatus = iota
	StatusSlaughtered
	StatusProcessed
	StatusInTransit
	StatusAtRetailer
	StatusSold
)

var statusNames = [...]string{"Created", "Slaughtered", "Processed", "In Transit", "At Retailer", "Sold"}

func (s BatchStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "Unknown"
}

// Next returns the only legal successor of s.
func (s BatchStatus) Next() (BatchStatus, bool) {
	if s >= StatusSold {
		return s, false
	}
	return s + 1, true
}

func ParseBatchStatus(s string) (BatchStatus, error) {
	key := normalize(s)
	for i, name := range statusNames {
		if normalize(name) == key {
			return BatchStatus(i), nil
		}
	}
	if n, err := strconv.ParseUint(key, 10, 8); err == nil && int(n) < len(statusNames) {
		return BatchStatus(n), nil
	}
	return StatusCreated, fmt.Errorf("unknown batch status %q", s)
}

type CertStatus uint8

const (
	CertPending CertStatus = iota
	CertApproved
	CertRejected
)

var certStatusNames = [...]string{"Pending", "Approved", "Rejected"}

func (s CertStatus) String() string {
	if int(s) < len(certStatusNames) {
		return certStatusNames[s]
	}
	return "Unknown"
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
}

// User is a registered participant. Users are never deleted, only deactivated.
type User struct {
	Address  string `json:"userAddress"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"isActive"`
}

// Batch is one consignment moving through the chain.
type Batch struct {
	BatchID    uint64      `json:"batchId"`
	Farmer     string      `json:"farmer"`
	AnimalType string      `json:"animalType"`
	Quantity   int64       `json:"quantity"`
	CreatedAt  int64       `json:"createdAt"`
	Status     BatchStatus `json:"status"`
	Exists     bool        `json:"exists"`
}

// Certificate is the halal approval attached to a batch. Certifier, Comments
// and DecidedAt stay empty while the certificate is pending.
type Certificate struct {
	CertID         uint64     `json:"certId"`
	BatchID        uint64     `json:"batchId"`
	Slaughterhouse string     `json:"slaughterhouse"`
	Certifier      string     `json:"certifier"`
	Status         CertStatus `json:"status"`
	Comments       string     `json:"comments"`
	IssuedAt       int64      `json:"issuedAt"`
	DecidedAt      int64      `json:"decidedAt,omitempty" metadata:",optional"`
}

// SupplyChainRecord is one immutable audit entry of a batch.
type SupplyChainRecord struct {
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	Location  string `json:"location"`
}
