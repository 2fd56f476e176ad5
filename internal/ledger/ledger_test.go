package ledger

import (
	"testing"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin          = "0xAD01"
	farmer         = "0xFA01"
	slaughterhouse = "0x5A01"
	processor      = "0x9C01"
	distributor    = "0xD101"
	retailer       = "0x2E01"
	certifier      = "0xCE01"
	consumer       = "0xC001"
)

var participants = []User{
	{Address: farmer, Name: "Farmer One", Role: RoleFarmer},
	{Address: slaughterhouse, Name: "Halal Slaughterhouse", Role: RoleSlaughterhouse},
	{Address: processor, Name: "Food Processor", Role: RoleProcessor},
	{Address: distributor, Name: "Distributor Co", Role: RoleDistributor},
	{Address: retailer, Name: "Retail Store", Role: RoleRetailer},
	{Address: certifier, Name: "JAKIM Officer", Role: RoleCertifier},
	{Address: consumer, Name: "Consumer", Role: RoleConsumer},
}

type fixture struct {
	t      *testing.T
	stub   *shimtest.MockStub
	ledger *Ledger
}

// newFixture returns a ledger with every participant registered and the
// registration events already drained.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	stub := shimtest.NewMockStub("halal", nil)
	stub.MockTransactionStart("tx-setup")
	t.Cleanup(func() { stub.MockTransactionEnd("tx-setup") })

	l := New(stub)
	require.NoError(t, l.Init(admin))
	for _, p := range participants {
		require.NoError(t, l.RegisterUser(admin, p.Address, p.Name, p.Role))
	}
	f := &fixture{t: t, stub: stub, ledger: l}
	f.events()
	return f
}

// events drains the mock's event channel and returns the event names.
func (f *fixture) events() []string {
	var names []string
	for {
		select {
		case ev := <-f.stub.ChaincodeEventsChannel:
			names = append(names, ev.EventName)
		default:
			return names
		}
	}
}

func (f *fixture) slaughteredBatch() uint64 {
	f.t.Helper()
	id, err := f.ledger.CreateBatch(farmer, "Cattle", 10)
	require.NoError(f.t, err)
	require.NoError(f.t, f.ledger.UpdateBatchStatus(slaughterhouse, id, StatusSlaughtered, "Slaughterhouse"))
	return id
}

func (f *fixture) certifiedBatch() uint64 {
	f.t.Helper()
	id := f.slaughteredBatch()
	certID, err := f.ledger.RequestHalalCertification(slaughterhouse, id)
	require.NoError(f.t, err)
	require.NoError(f.t, f.ledger.ApproveCertificate(certifier, certID, "Approved"))
	return id
}

func TestInit(t *testing.T) {
	t.Run("records the admin exactly once", func(t *testing.T) {
		stub := shimtest.NewMockStub("halal", nil)
		stub.MockTransactionStart("tx1")
		l := New(stub)

		require.NoError(t, l.Init(admin))
		got, err := l.Admin()
		require.NoError(t, err)
		assert.Equal(t, admin, got)

		u, err := l.GetUser(admin)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, u.Role)
		assert.True(t, u.IsActive)

		assert.ErrorIs(t, l.Init("0xOTHER"), ErrAlreadyInitialized)
	})

	t.Run("rejects an empty admin", func(t *testing.T) {
		stub := shimtest.NewMockStub("halal", nil)
		stub.MockTransactionStart("tx1")
		assert.ErrorIs(t, New(stub).Init("  "), ErrInvalidInput)
	})
}

func TestRegisterUser(t *testing.T) {
	t.Run("registers users with correct roles", func(t *testing.T) {
		f := newFixture(t)
		u, err := f.ledger.GetUser(farmer)
		require.NoError(t, err)
		assert.Equal(t, User{Address: farmer, Name: "Farmer One", Role: RoleFarmer, IsActive: true}, *u)
	})

	t.Run("emits UserRegistered", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.ledger.RegisterUser(admin, "0xNEW", "New", RoleConsumer))
		assert.Equal(t, []string{EventUserRegistered}, f.events())
	})

	t.Run("only the admin can register", func(t *testing.T) {
		f := newFixture(t)
		err := f.ledger.RegisterUser(farmer, "0xNEW", "New User", RoleConsumer)
		assert.ErrorIs(t, err, ErrUnauthorizedRole)
		assert.Contains(t, err.Error(), "Only admin can perform this action")
	})

	t.Run("rejects an active duplicate", func(t *testing.T) {
		f := newFixture(t)
		err := f.ledger.RegisterUser(admin, farmer, "Again", RoleRetailer)
		assert.ErrorIs(t, err, ErrDuplicateRegistration)
		u, _ := f.ledger.GetUser(farmer)
		assert.Equal(t, RoleFarmer, u.Role)
	})

	t.Run("re-registering a deactivated address overwrites it", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.ledger.DeactivateUser(admin, farmer))
		require.NoError(t, f.ledger.RegisterUser(admin, farmer, "Now Retail", RoleRetailer))
		u, _ := f.ledger.GetUser(farmer)
		assert.Equal(t, User{Address: farmer, Name: "Now Retail", Role: RoleRetailer, IsActive: true}, *u)
	})

	t.Run("rejects roles that cannot be assigned", func(t *testing.T) {
		f := newFixture(t)
		for _, role := range []Role{RoleNone, RoleAdmin, Role(42)} {
			assert.ErrorIs(t, f.ledger.RegisterUser(admin, "0xNEW", "x", role), ErrInvalidRole, role.String())
		}
	})

	t.Run("rejects an empty address", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.ledger.RegisterUser(admin, "", "x", RoleFarmer), ErrInvalidInput)
	})
}

func TestDeactivateUser(t *testing.T) {
	t.Run("deactivates a user", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.ledger.DeactivateUser(admin, farmer))
		u, _ := f.ledger.GetUser(farmer)
		assert.False(t, u.IsActive)
		assert.Equal(t, []string{EventUserDeactivated}, f.events())
	})

	t.Run("unknown or inactive addresses are not registered", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.ledger.DeactivateUser(admin, "0xNOBODY"), ErrNotRegistered)
		require.NoError(t, f.ledger.DeactivateUser(admin, farmer))
		assert.ErrorIs(t, f.ledger.DeactivateUser(admin, farmer), ErrNotRegistered)
	})

	t.Run("the admin cannot be deactivated", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.ledger.DeactivateUser(admin, admin), ErrInvalidRole)
	})

	t.Run("deactivated users cannot mutate", func(t *testing.T) {
		f := newFixture(t)
		id := f.slaughteredBatch()
		for _, p := range participants {
			require.NoError(t, f.ledger.DeactivateUser(admin, p.Address))
		}

		_, err := f.ledger.CreateBatch(farmer, "Chicken", 100)
		assert.ErrorIs(t, err, ErrInactiveAccount)
		assert.Contains(t, err.Error(), "Account is not active")

		_, err = f.ledger.RequestHalalCertification(slaughterhouse, id)
		assert.ErrorIs(t, err, ErrInactiveAccount)
		assert.ErrorIs(t, f.ledger.UpdateBatchStatus(processor, id, StatusProcessed, "Plant"), ErrInactiveAccount)
		assert.ErrorIs(t, f.ledger.ApproveCertificate(certifier, 1, "ok"), ErrInactiveAccount)
	})
}

func TestGetUserUnknown(t *testing.T) {
	f := newFixture(t)
	u, err := f.ledger.GetUser("0xNOBODY")
	require.NoError(t, err)
	assert.Equal(t, User{Address: "0xNOBODY"}, *u)

	_, err = f.ledger.CreateBatch("0xNOBODY", "Chicken", 1)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(newError(CodeBatchNotFound, "Batch does not exist: %d", 7))
	assert.True(t, ok)
	assert.Equal(t, CodeBatchNotFound, code)

	_, ok = CodeOf(assert.AnError)
	assert.False(t, ok)
}
