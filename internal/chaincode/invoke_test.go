package chaincode

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/msp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

// attrOID is the certificate extension Fabric CA stores enrollment
// attributes in.
var attrOID = asn1.ObjectIdentifier{1, 2, 3, 4, 5, 6, 7, 8, 1}

// creator returns a serialized Org1MSP identity whose certificate carries
// the given ledger address as an enrollment attribute.
func creator(t *testing.T, address string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	attrs, err := json.Marshal(map[string]map[string]string{"attrs": {addressAttribute: address}})
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:    big.NewInt(time.Now().UnixNano()),
		Subject:         pkix.Name{CommonName: address, Organization: []string{"Org1"}},
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(time.Hour),
		ExtraExtensions: []pkix.Extension{{Id: attrOID, Value: attrs}},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	// msp messages are still generated against the v1 API
	id, err := proto.Marshal(protoadapt.MessageV2Of(&msp.SerializedIdentity{
		Mspid:   "Org1MSP",
		IdBytes: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}))
	require.NoError(t, err)
	return id
}

func TestChaincodeInvoke(t *testing.T) {
	cc, err := contractapi.NewChaincode(NewSmartContract(nil))
	require.NoError(t, err)
	stub := shimtest.NewMockStub("halal", cc)

	invoke := func(as string, args ...string) (int32, string) {
		stub.Creator = creator(t, as)
		raw := make([][]byte, len(args))
		for i, a := range args {
			raw[i] = []byte(a)
		}
		res := stub.MockInvoke("tx-"+args[0], raw)
		if res.Status != 200 {
			return res.Status, res.Message
		}
		return res.Status, string(res.Payload)
	}

	status, _ := invoke("0xAD01", "InitLedger")
	require.EqualValues(t, 200, status)

	for _, u := range []struct{ addr, name, role string }{
		{"0xFA01", "Pak Ali", "2"},
		{"0x5A01", "Abattoir Shah Alam", "3"},
		{"0x9C01", "Processing Plant", "4"},
		{"0xCE01", "JAKIM", "7"},
	} {
		status, msg := invoke("0xAD01", "HalalSupplyChain:RegisterUser", u.addr, u.name, u.role)
		require.EqualValues(t, 200, status, msg)
	}

	status, payload := invoke("0xFA01", "CreateBatch", "Chicken", "250")
	require.EqualValues(t, 200, status, payload)
	assert.Equal(t, "1", payload)

	status, payload = invoke("0xFA01", "GetBatchDetails", "1")
	require.EqualValues(t, 200, status, payload)
	var batch ledger.Batch
	require.NoError(t, json.Unmarshal([]byte(payload), &batch))
	assert.Equal(t, "0xFA01", batch.Farmer)
	assert.Equal(t, int64(250), batch.Quantity)

	status, msg := invoke("0xC001", "CreateBatch", "Chicken", "1")
	assert.EqualValues(t, 500, status)
	assert.Contains(t, msg, "NotRegistered")

	status, msg = invoke("0x5A01", "UpdateBatchStatus", "1", "1", "Abattoir Shah Alam")
	require.EqualValues(t, 200, status, msg)

	status, payload = invoke("0x5A01", "RequestHalalCertification", "1")
	require.EqualValues(t, 200, status, payload)
	assert.Equal(t, "1", payload)

	status, msg = invoke("0x9C01", "UpdateBatchStatus", "1", "2", "Processing Plant")
	assert.EqualValues(t, 500, status)
	assert.Contains(t, msg, "CertificateNotApproved")

	status, msg = invoke("0xCE01", "ApproveCertificate", "1", "Halal requirements met")
	require.EqualValues(t, 200, status, msg)

	status, msg = invoke("0x9C01", "UpdateBatchStatus", "1", "2", "Processing Plant")
	require.EqualValues(t, 200, status, msg)

	status, payload = invoke("0xFA01", "GetSupplyChainHistory", "1")
	require.EqualValues(t, 200, status, payload)
	var history []ledger.SupplyChainRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &history))
	require.Len(t, history, 3)
	assert.Equal(t, "Batch created", history[0].Action)
	assert.Equal(t, "0x5A01", history[1].Actor)
	assert.Equal(t, "Batch processed", history[2].Action)
	assert.Equal(t, "Processing Plant", history[2].Location)

	status, payload = invoke("0xFA01", "GetCertificateDetails", "1")
	require.EqualValues(t, 200, status, payload)
	var cert ledger.Certificate
	require.NoError(t, json.Unmarshal([]byte(payload), &cert))
	assert.Equal(t, ledger.CertApproved, cert.Status)
	assert.Equal(t, "0xCE01", cert.Certifier)
	assert.Equal(t, "0x5A01", cert.Slaughterhouse)
	assert.Equal(t, "Halal requirements met", cert.Comments)

	status, payload = invoke("0xFA01", "GetBatchDetails", "1")
	require.EqualValues(t, 200, status, payload)
	require.NoError(t, json.Unmarshal([]byte(payload), &batch))
	assert.Equal(t, ledger.StatusProcessed, batch.Status)

	status, payload = invoke("0xFA01", "GetAdmin")
	require.EqualValues(t, 200, status)
	assert.Equal(t, "0xAD01", payload)
}
