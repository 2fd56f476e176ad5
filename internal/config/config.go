// Package config loads the settings shared by halalcc and halalctl from
// defaults, an optional config file, a .env file and HALAL_ environment
// variables, in increasing order of precedence. Command line flags bound
// to the same keys win over all of them.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "HALAL"

type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type TLS struct {
	Enabled  bool   `mapstructure:"enabled"`
	Key      string `mapstructure:"key" validate:"required_if=Enabled true,omitempty,file"`
	Cert     string `mapstructure:"cert" validate:"required_if=Enabled true,omitempty,file"`
	ClientCA string `mapstructure:"clientca" validate:"omitempty,file"`
}

// Chaincode configures halalcc. With an empty Address the chaincode is
// launched by the peer; otherwise it runs as an external service.
type Chaincode struct {
	ID      string `mapstructure:"id" validate:"required_with=Address"`
	Address string `mapstructure:"address" validate:"omitempty,hostname_port"`
	TLS     TLS    `mapstructure:"tls"`
}

type Config struct {
	Log       Log       `mapstructure:"log"`
	DB        string    `mapstructure:"db" validate:"required"`
	Listen    string    `mapstructure:"listen" validate:"required,hostname_port"`
	Admin     string    `mapstructure:"admin"`
	Chaincode Chaincode `mapstructure:"chaincode"`
}

var validate = validator.New()

// New returns a viper instance with every key defaulted and bound to its
// HALAL_ variable. The chaincode keys also honour the variables the Fabric
// external builder sets.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("db", "halal.db")
	v.SetDefault("listen", ":8080")
	v.SetDefault("admin", "")
	v.SetDefault("chaincode.id", "")
	v.SetDefault("chaincode.address", "")
	v.SetDefault("chaincode.tls.enabled", false)
	v.SetDefault("chaincode.tls.key", "")
	v.SetDefault("chaincode.tls.cert", "")
	v.SetDefault("chaincode.tls.clientca", "")

	// explicit names skip the prefix, so both spellings are listed
	_ = v.BindEnv("chaincode.id", EnvPrefix+"_CHAINCODE_ID", "CHAINCODE_ID")
	_ = v.BindEnv("chaincode.address", EnvPrefix+"_CHAINCODE_ADDRESS", "CHAINCODE_SERVER_ADDRESS")
	return v
}

// LoadDotEnv exports the variables in path unless they are already set. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return pkgerrors.Wrapf(err, "could not load %s", path)
	}
	return nil
}

// Load reads the optional config file and returns the validated settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.Wrapf(err, "could not read config file %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, pkgerrors.Wrap(err, "could not decode config")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, pkgerrors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}
