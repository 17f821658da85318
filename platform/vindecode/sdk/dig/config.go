/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	dig2 "github.com/vindecode/vindecode/platform/common/sdk/dig"
	"github.com/vindecode/vindecode/platform/vindecode/model"
	"github.com/vindecode/vindecode/platform/vindecode/services/tx"
)

type PassphraseConfig struct {
	Value string `mapstructure:"value"`
	// File holding the passphrase, preferred over Value
	File string `mapstructure:"file"`
}

type EthereumConfig struct {
	Endpoint   string           `mapstructure:"endpoint"`
	ChainID    int64            `mapstructure:"chainId"`
	Contract   string           `mapstructure:"contract"`
	Keystore   string           `mapstructure:"keystore"`
	Passphrase PassphraseConfig `mapstructure:"passphrase"`
	Explorer   string           `mapstructure:"explorer"`
}

func (c *EthereumConfig) ChainIDBig() *big.Int {
	if c.ChainID == 0 {
		return nil
	}
	return big.NewInt(c.ChainID)
}

func (c *EthereumConfig) ContractAddress() common.Address {
	return common.HexToAddress(c.Contract)
}

type RelayConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TxConfig struct {
	// Retention is how long finished transactions can still be looked up
	Retention time.Duration `mapstructure:"retention"`
}

// Config is the vindecode section of the node configuration
type Config struct {
	Ethereum EthereumConfig `mapstructure:"ethereum"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Tx       TxConfig       `mapstructure:"tx"`
}

func NewConfig(config dig2.ConfigService) (*Config, error) {
	c := &Config{}
	if err := config.UnmarshalKey("vindecode.ethereum", &c.Ethereum); err != nil {
		return nil, errors.Wrap(err, "failed reading ethereum configuration")
	}
	if err := config.UnmarshalKey("vindecode.relay", &c.Relay); err != nil {
		return nil, errors.Wrap(err, "failed reading relay configuration")
	}
	c.Tx.Retention = tx.DefaultRetention
	if config.IsSet("vindecode.tx.retention") {
		c.Tx.Retention = config.GetDuration("vindecode.tx.retention")
	}
	c.Ethereum.Keystore = config.GetPath("vindecode.ethereum.keystore")
	c.Ethereum.Passphrase.File = config.GetPath("vindecode.ethereum.passphrase.file")

	if len(c.Ethereum.Endpoint) == 0 {
		return nil, errors.New("ethereum endpoint not configured")
	}
	if _, err := model.ParseAddress(c.Ethereum.Contract); err != nil {
		return nil, errors.WithMessage(err, "invalid contract address")
	}
	if len(c.Ethereum.Keystore) == 0 {
		return nil, errors.New("keystore not configured")
	}
	if c.Relay.Timeout == 0 {
		c.Relay.Timeout = 30 * time.Second
	}
	return c, nil
}

// PassphraseValue returns the keystore passphrase
func (c *EthereumConfig) PassphraseValue() (string, error) {
	if len(c.Passphrase.File) == 0 {
		return c.Passphrase.Value, nil
	}
	raw, err := os.ReadFile(c.Passphrase.File)
	if err != nil {
		return "", errors.Wrapf(err, "failed reading passphrase file [%s]", c.Passphrase.File)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}
