/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vindecode/vindecode/platform/view/services/config"
	"github.com/vindecode/vindecode/platform/vindecode/services/tx"
)

const coreYAML = `
vindecode:
  ethereum:
    endpoint: ws://127.0.0.1:8545
    chainId: 31337
    contract: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
    keystore: ./keystore
    passphrase:
      file: ./passphrase.txt
    explorer: https://sepolia.etherscan.io/tx/%s
  relay:
    url: http://localhost:8080
`

func writeConfig(t *testing.T, content string) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.yaml"), []byte(content), 0o600))
	return dir
}

func TestNewConfig(t *testing.T) {
	dir := writeConfig(t, coreYAML)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passphrase.txt"), []byte("s3cret\n"), 0o600))

	p, err := config.NewProvider(dir)
	require.NoError(t, err)
	c, err := NewConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:8545", c.Ethereum.Endpoint)
	assert.Equal(t, int64(31337), c.Ethereum.ChainIDBig().Int64())
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", c.Ethereum.ContractAddress().Hex())
	assert.Equal(t, filepath.Join(dir, "keystore"), c.Ethereum.Keystore)
	assert.Equal(t, 30*time.Second, c.Relay.Timeout)
	assert.Equal(t, tx.DefaultRetention, c.Tx.Retention)

	passphrase, err := c.Ethereum.PassphraseValue()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", passphrase)
}

func TestNewConfigRetention(t *testing.T) {
	for content, expected := range map[string]time.Duration{
		"  tx:\n    retention: 5s\n": 5 * time.Second,
		"  tx:\n    retention: 0s\n": 0,
	} {
		p, err := config.NewProvider(writeConfig(t, coreYAML+content))
		require.NoError(t, err)
		c, err := NewConfig(p)
		require.NoError(t, err)
		assert.Equal(t, expected, c.Tx.Retention)
	}
}

func TestNewConfigRejects(t *testing.T) {
	for name, content := range map[string]string{
		"no endpoint": `
vindecode:
  ethereum:
    contract: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
    keystore: ./keystore
`,
		"bad contract": `
vindecode:
  ethereum:
    endpoint: ws://127.0.0.1:8545
    contract: nope
    keystore: ./keystore
`,
		"no keystore": `
vindecode:
  ethereum:
    endpoint: ws://127.0.0.1:8545
    contract: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
`,
	} {
		t.Run(name, func(t *testing.T) {
			p, err := config.NewProvider(writeConfig(t, content))
			require.NoError(t, err)
			_, err = NewConfig(p)
			assert.Error(t, err)
		})
	}
}
