package ledger

import "slices"

// Operation names a gated mutation.
type Operation string

const (
	OpRegisterUser         Operation = "RegisterUser"
	OpDeactivateUser       Operation = "DeactivateUser"
	OpCreateBatch          Operation = "CreateBatch"
	OpUpdateBatchStatus    Operation = "UpdateBatchStatus"
	OpRequestCertification Operation = "RequestHalalCertification"
	OpApproveCertificate   Operation = "ApproveCertificate"
	OpRejectCertificate    Operation = "RejectCertificate"
)

// permissions lists the roles allowed to invoke each operation. Status
// updates are checked against it first and then narrowed to the step role
// in transitions.
var permissions = map[Operation][]Role{
	OpRegisterUser:         {RoleAdmin},
	OpDeactivateUser:       {RoleAdmin},
	OpCreateBatch:          {RoleFarmer},
	OpUpdateBatchStatus:    {RoleSlaughterhouse, RoleProcessor, RoleDistributor, RoleRetailer},
	OpRequestCertification: {RoleSlaughterhouse},
	OpApproveCertificate:   {RoleCertifier},
	OpRejectCertificate:    {RoleCertifier},
}

// Allowed reports whether role may invoke op at all.
func Allowed(role Role, op Operation) bool {
	return slices.Contains(permissions[op], role)
}

type transition struct {
	role             Role
	action           string
	needsCertificate bool
}

// transitions is keyed by the target status; the source is always the
// target's predecessor.
var transitions = map[BatchStatus]transition{
	StatusSlaughtered: {role: RoleSlaughterhouse, action: "Batch slaughtered"},
	StatusProcessed:   {role: RoleProcessor, action: "Batch processed", needsCertificate: true},
	StatusInTransit:   {role: RoleDistributor, action: "Batch in transit"},
	StatusAtRetailer:  {role: RoleRetailer, action: "Batch arrived at retailer"},
	StatusSold:        {role: RoleRetailer, action: "Batch sold"},
}

// StepRole returns the role that moves a batch into status.
func StepRole(status BatchStatus) (Role, bool) {
	t, ok := transitions[status]
	return t.role, ok
}

// authenticate loads the caller and checks that the account is usable.
func (l *Ledger) authenticate(caller string) (*User, error) {
	var u User
	found, err := l.getJSON(userPrefix+caller, &u)
	if err != nil {
		return nil, err
	}
	if !found || u.Role == RoleNone {
		return nil, newError(CodeNotRegistered, "address %s is not registered", caller)
	}
	if !u.IsActive {
		return nil, ErrInactiveAccount
	}
	return &u, nil
}

func (l *Ledger) authorize(caller string, op Operation) (*User, error) {
	u, err := l.authenticate(caller)
	if err != nil {
		return nil, err
	}
	if !Allowed(u.Role, op) {
		if op == OpRegisterUser || op == OpDeactivateUser {
			return nil, newError(CodeUnauthorizedRole, "Only admin can perform this action")
		}
		return nil, newError(CodeUnauthorizedRole, "Unauthorized role: %s cannot %s", u.Role, op)
	}
	return u, nil
}
