// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configPath resolves the config file to load: an explicit --config value
// takes precedence, otherwise ~/.config/urltest.yaml is tried if present.
// Flags set on the command line always win over anything found here; this
// only ever supplies values for flags the user did not pass, matching the
// teacher's applySettingsDefaults precedence rule.
func configPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "urltest.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func loadYAMLConfig(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("urltest: reading config %q: %w", path, err)
	}
	var cfg map[string]any
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("urltest: invalid YAML config %q: %w", path, err)
	}
	return cfg, nil
}

// configSetters bundles the small per-type helpers applyWebdavConfigDefaults
// and applyGetlistConfigDefaults use, bound to one cobra.Command and one
// parsed config map.
type configSetters struct {
	cmd *cobra.Command
	cfg map[string]any
}

func (s configSetters) str(flagName string, set func(string)) {
	if s.cmd.Flags().Changed(flagName) {
		return
	}
	if v, ok := s.cfg[flagName]; ok && v != nil {
		set(fmt.Sprint(v))
	}
}

func (s configSetters) boolean(flagName string, set func(bool)) {
	if s.cmd.Flags().Changed(flagName) {
		return
	}
	if v, ok := s.cfg[flagName]; ok && v != nil {
		b, ok := v.(bool)
		if ok {
			set(b)
		}
	}
}

func (s configSetters) integer(flagName string, set func(int)) {
	if s.cmd.Flags().Changed(flagName) {
		return
	}
	if v, ok := s.cfg[flagName]; ok && v != nil {
		var x int
		fmt.Sscan(fmt.Sprint(v), &x)
		set(x)
	}
}

// applyWebdavConfigDefaults fills in any webdavOpts field whose flag was not
// passed on the command line from the resolved config file, if any.
func applyWebdavConfigDefaults(cmd *cobra.Command, o *webdavOpts, explicitPath string) error {
	cfg, err := loadYAMLConfig(configPath(explicitPath))
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	s := configSetters{cmd: cmd, cfg: cfg}
	s.str("base-url", func(v string) { o.baseURL = v })
	s.str("username", func(v string) { o.username = v })
	s.str("password", func(v string) { o.password = v })
	s.boolean("no-cert-verify", func(v bool) { o.insecure = v })
	s.boolean("no-follow-3xx", func(v bool) { o.noFollow3xx = v })
	s.boolean("no-delete", func(v bool) { o.noDelete = v })
	s.boolean("ranged-ops", func(v bool) { o.rangedOps = v })
	s.boolean("no-options", func(v bool) { o.noOptions = v })
	s.integer("generations", func(v int) { o.maxGeneration = v })
	s.str("show-timings", func(v string) { o.showTimings = v })
	s.boolean("no-color", func(v bool) { o.noColor = v })
	return nil
}

// applyGetlistConfigDefaults is applyWebdavConfigDefaults's counterpart for
// urltest-getlist's flag set.
func applyGetlistConfigDefaults(cmd *cobra.Command, o *getlistOpts, explicitPath string) error {
	cfg, err := loadYAMLConfig(configPath(explicitPath))
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	s := configSetters{cmd: cmd, cfg: cfg}
	s.str("base-url", func(v string) { o.baseURL = v })
	s.str("username", func(v string) { o.username = v })
	s.str("password", func(v string) { o.password = v })
	s.boolean("no-cert-verify", func(v bool) { o.insecure = v })
	s.boolean("no-follow-3xx", func(v bool) { o.noFollow3xx = v })
	s.integer("concurrency", func(v int) { o.concurrency = v })
	s.integer("retries", func(v int) { o.retries = v })
	s.str("show-timings", func(v string) { o.showTimings = v })
	return nil
}
