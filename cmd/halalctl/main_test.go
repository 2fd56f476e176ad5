package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/config"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	return &cli{t: t, db: filepath.Join(t.TempDir(), "halal.db")}
}

func (c *cli) run(as string, args ...string) (string, error) {
	c.t.Helper()
	full := []string{"--db", c.db}
	if as != "" {
		full = append(full, "--as", as)
	}
	var out, errOut bytes.Buffer
	err := execute(append(full, args...), &out, &errOut)
	return out.String(), err
}

func (c *cli) must(as string, args ...string) string {
	c.t.Helper()
	out, err := c.run(as, args...)
	require.NoError(c.t, err, "halalctl %v", args)
	return out
}

func TestFarmToRetail(t *testing.T) {
	c := newCLI(t)
	assert.Contains(t, c.must("0xAD01", "init"), "admin 0xAD01")
	c.must("0xAD01", "user", "register", "0xFA01", "Pak Ali", "farmer")
	c.must("0xAD01", "user", "register", "0x5A01", "Abattoir", "slaughterhouse")
	c.must("0xAD01", "user", "register", "0x9C01", "Plant", "processor")
	out := c.must("0xAD01", "user", "register", "0xCE01", "JAKIM", "jakim")
	assert.Contains(t, out, "Certifier")

	out = c.must("0xFA01", "batch", "create", "Chicken", "250")
	assert.Contains(t, out, "Chicken")
	assert.Contains(t, out, "Created")

	c.must("0x5A01", "batch", "advance", "1", "slaughtered", "--location", "Shah Alam")
	out = c.must("0x5A01", "cert", "request", "1")
	assert.Contains(t, out, "Pending")

	_, err := c.run("0x9C01", "batch", "advance", "1", "processed")
	assert.ErrorContains(t, err, "CertificateNotApproved")

	assert.Contains(t, c.must("", "cert", "pending"), "0x5A01")
	out = c.must("0xCE01", "cert", "approve", "1", "--comments", "Patuh syariah")
	assert.Contains(t, out, "Approved")

	c.must("0x9C01", "batch", "advance", "1", "processed", "-L", "Plant")

	out = c.must("", "verify", "1")
	assert.Contains(t, out, "Batch 1:")
	assert.NotContains(t, out, "NOT HALAL")
	assert.Contains(t, out, "Batch processed")

	out = c.must("", "batch", "history", "1")
	assert.Contains(t, out, "Shah Alam")
	assert.Contains(t, c.must("0xFA01", "batch", "list"), "Chicken")
	assert.Contains(t, c.must("", "batch", "show", "1"), "Processed")
	assert.Contains(t, c.must("", "cert", "show", "1"), "Patuh syariah")
}

func TestRejections(t *testing.T) {
	c := newCLI(t)
	c.must("0xAD01", "init")
	c.must("0xAD01", "user", "register", "0xC001", "Siti", "consumer")

	_, err := c.run("0xC001", "batch", "create", "Beef", "10")
	assert.ErrorContains(t, err, "UnauthorizedRole")

	_, err = c.run("", "batch", "create", "Beef", "10")
	assert.ErrorContains(t, err, "no caller")

	_, err = c.run("0xAD01", "user", "register", "0x01", "x", "butcher")
	assert.ErrorContains(t, err, "unknown role")

	_, err = c.run("", "batch", "show", "x")
	assert.ErrorContains(t, err, "invalid id")

	// no reason needed; the unregistered certifier is what fails
	_, err = c.run("0xCE01", "cert", "reject", "1")
	assert.ErrorContains(t, err, "NotRegistered")

	_, err = c.run("0xAD01", "init")
	assert.ErrorContains(t, err, "AlreadyInitialized")

	c.must("0xAD01", "user", "deactivate", "0xC001")
	assert.Contains(t, c.must("", "user", "show", "0xC001"), "false")

	_, err = c.run("", "verify", "1")
	assert.ErrorContains(t, err, "BatchNotFound")
}

func TestLogEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	events := make(chan ledger.Event, 2)
	events <- ledger.Event{TxID: "tx1", Name: ledger.EventBatchCreated, Payload: []byte(`{"batchId":1}`)}
	events <- ledger.Event{TxID: "tx2", Name: ledger.EventCertificateRequested, Payload: []byte(`{"certId":1}`)}
	close(events)

	logEvents(events, zap.New(core))

	entries := logs.FilterMessage("ledger event").All()
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.EventBatchCreated, entries[0].ContextMap()["event"])
	assert.Equal(t, "tx2", entries[1].ContextMap()["tx"])
}

func TestBindReportsMissingFlag(t *testing.T) {
	a := &app{v: config.New(), logger: zap.NewNop()}

	err := a.bind("listen", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not bind flag to listen")

	root, err := newRootCmd(a)
	require.NoError(t, err)
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("listen"))
}
