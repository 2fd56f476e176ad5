/*
SPDX-License-Identifier: Apache-2.0
*/

// Command halalcc is the halal supply chain chaincode. It is started by the
// peer, or runs as a chaincode service when chaincode.address is set.
package main

import (
	"fmt"
	"os"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/chaincode"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/config"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/logging"
)

func main() {
	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading environment: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(config.New(), os.Getenv("HALAL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("chaincode stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	cc, err := contractapi.NewChaincode(chaincode.NewSmartContract(logger))
	if err != nil {
		return fmt.Errorf("error creating chaincode: %w", err)
	}

	if cfg.Chaincode.Address == "" {
		logger.Info("starting chaincode under the peer")
		return cc.Start()
	}

	server, err := newServer(cfg.Chaincode, cc)
	if err != nil {
		return err
	}
	logger.Info("starting chaincode service",
		zap.String("ccid", server.CCID),
		zap.String("address", server.Address),
		zap.Bool("tls", !server.TLSProps.Disabled))
	return server.Start()
}

func newServer(cfg config.Chaincode, cc shim.Chaincode) (*shim.ChaincodeServer, error) {
	tls, err := tlsProperties(cfg.TLS)
	if err != nil {
		return nil, err
	}
	return &shim.ChaincodeServer{
		CCID:     cfg.ID,
		Address:  cfg.Address,
		CC:       cc,
		TLSProps: tls,
	}, nil
}

func tlsProperties(cfg config.TLS) (shim.TLSProperties, error) {
	if !cfg.Enabled {
		return shim.TLSProperties{Disabled: true}, nil
	}
	key, err := os.ReadFile(cfg.Key)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("error reading TLS key: %w", err)
	}
	cert, err := os.ReadFile(cfg.Cert)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("error reading TLS certificate: %w", err)
	}
	props := shim.TLSProperties{Key: key, Cert: cert}
	if cfg.ClientCA != "" {
		if props.ClientCACerts, err = os.ReadFile(cfg.ClientCA); err != nil {
			return shim.TLSProperties{}, fmt.Errorf("error reading client CA: %w", err)
		}
	}
	return props, nil
}
