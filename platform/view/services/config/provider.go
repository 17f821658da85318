/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	viperutil "github.com/vindecode/vindecode/platform/view/services/config/viper"
)

const (
	CmdRoot = "core"
	// CfgPathEnv overrides the configuration search path
	CfgPathEnv   = "VINDECODE_CFG_PATH"
	OfficialPath = "/etc/vindecode"
)

var logOutput = os.Stderr

// Provider exposes the node configuration read from core.yaml.
// Keys can be overridden with CORE_<KEY> environment variables, dots replaced by underscores.
type Provider struct {
	confPath string
	Backend  *viper.Viper
}

func NewProvider(confPath string) (*Provider, error) {
	p := &Provider{confPath: confPath}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) GetDuration(key string) time.Duration {
	return p.Backend.GetDuration(key)
}

func (p *Provider) GetBool(key string) bool {
	return p.Backend.GetBool(key)
}

func (p *Provider) GetInt(key string) int {
	return p.Backend.GetInt(key)
}

func (p *Provider) GetInt64(key string) int64 {
	return p.Backend.GetInt64(key)
}

func (p *Provider) GetStringSlice(key string) []string {
	return p.Backend.GetStringSlice(key)
}

func (p *Provider) UnmarshalKey(key string, rawVal interface{}) error {
	return viperutil.EnhancedExactUnmarshal(p.Backend, key, rawVal)
}

func (p *Provider) IsSet(key string) bool {
	return p.Backend.IsSet(key)
}

// GetPath returns the path stored under key, resolved against the directory of the config file.
func (p *Provider) GetPath(key string) string {
	return p.TranslatePath(p.Backend.GetString(key))
}

func (p *Provider) TranslatePath(path string) string {
	if path == "" {
		return ""
	}
	return TranslatePath(filepath.Dir(p.Backend.ConfigFileUsed()), path)
}

func (p *Provider) GetString(key string) string {
	return p.Backend.GetString(key)
}

func (p *Provider) ConfigFileUsed() string {
	return p.Backend.ConfigFileUsed()
}

func (p *Provider) load() error {
	p.Backend = viper.New()
	if err := p.initViper(p.Backend, CmdRoot); err != nil {
		return err
	}

	if err := p.Backend.ReadInConfig(); err != nil {
		// viper reports a missing file as an unsupported config type
		if strings.Contains(fmt.Sprint(err), "Unsupported Config Type") {
			return errors.Errorf("Could not find config file. "+
				"Please make sure that %s is set to a path "+
				"which contains %s.yaml", CfgPathEnv, CmdRoot)
		}
		return errors.WithMessagef(err, "error when reading %s config file", CmdRoot)
	}

	if err := p.substituteEnv(); err != nil {
		return err
	}

	logging.Init(logging.Config{
		Format:  p.Backend.GetString("logging.format"),
		LogSpec: p.Backend.GetString("logging.spec"),
		Writer:  logOutput,
	})

	return nil
}

// Manually override keys if the respective environment variable is set, because viper doesn't do
// that for UnmarshalKey values (see https://github.com/spf13/viper/pull/1699).
// Example: CORE_LOGGING_FORMAT sets logging.format.
func (p *Provider) substituteEnv() error {
	prefix := strings.ToUpper(CmdRoot) + "_"
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, prefix) {
			continue
		}

		env := strings.Split(e, "=")
		if len(env[1]) == 0 {
			continue
		}
		key, val := env[0], strings.Join(env[1:], "=")
		key = strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, prefix), "_", "."))

		keys := strings.Split(key, ".")
		parent := strings.Join(keys[:len(keys)-1], ".")
		if !p.Backend.IsSet(parent) {
			p.Backend.Set(key, val)
			continue
		}

		if k := p.Backend.GetStringMap(key); len(k) > 0 {
			fmt.Fprintln(logOutput, "-- skipping "+env[0]+": cannot override maps")
			continue
		}

		root := p.Backend.GetStringMap(keys[0])
		if err := setDeepValue(root, keys, val); err != nil {
			return errors.Wrap(err, "error when substituting")
		}
		p.Backend.Set(keys[0], root)
	}
	return nil
}

// setDeepValue sets value at the deepest level of m following keys[1:]
func setDeepValue(m map[string]any, keys []string, value any) error {
	if len(keys) < 2 {
		return errors.New("can't set root key")
	}

	current := m
	for i := 1; i < len(keys)-1; i++ {
		nextMap, ok := current[keys[i]].(map[string]any)
		if !ok {
			return errors.New("expected map at key " + keys[i])
		}
		current = nextMap
	}
	current[keys[len(keys)-1]] = value

	return nil
}

// initViper establishes the paths consulted to find the configuration, in priority order:
// the explicit conf path, VINDECODE_CFG_PATH (exclusive when set), CWD and OfficialPath.
func (p *Provider) initViper(v *viper.Viper, configName string) error {
	if len(p.confPath) != 0 {
		v.AddConfigPath(p.confPath)
	}

	if altPath := os.Getenv(CfgPathEnv); altPath != "" {
		if !dirExists(altPath) {
			return errors.Errorf("%s %s does not exist", CfgPathEnv, altPath)
		}
		v.AddConfigPath(altPath)
	} else {
		v.AddConfigPath("./")
		if dirExists(OfficialPath) {
			v.AddConfigPath(OfficialPath)
		}
	}

	v.SetConfigName(configName)
	return nil
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.IsDir()
}

func TranslatePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
