package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML defaults layer (new in this repo, not
// part of the original CLI-only tool): every field mirrors GlobalConfig
// and is overridden field-by-field by whatever CLI flags are present.
type fileConfig struct {
	ListenIP   string   `yaml:"listen_ip"`
	ListenPort int      `yaml:"listen_port"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	BindIP     string   `yaml:"bind_ip"`
	Whitelist  []string `yaml:"whitelist"`
	AuthOnce   bool     `yaml:"auth_once"`
	Quiet      bool     `yaml:"quiet"`
	ReverseIP  string   `yaml:"reverse_ip"`
	BridgePort int      `yaml:"bridge_port"`
}

// loadConfigFile reads and parses an optional YAML defaults file.
// buildConfig only calls it when -config was given; a file that cannot be
// read or parsed is returned as an error.
func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

// GlobalConfig is the immutable, fully-resolved configuration shared by
// all workers after startup (spec.md §3). Nothing mutates it once
// buildConfig returns, so it's safely readable from any goroutine without
// locking.
type GlobalConfig struct {
	ListenIP   string
	ListenPort int

	Username string
	Password string

	BindAddr net.IP

	AuthOnce bool
	Quiet    bool

	ReverseHost string
	ReversePort int

	BridgePort int

	// allowlistActive mirrors whether the original's auth_ips object was
	// ever allocated: true iff a static whitelist or -1 was given. NO_AUTH
	// gating only consults the allowlist when this is true.
	allowlistActive bool
}

// AllowlistEnabled reports whether the IP allowlist participates in
// method negotiation at all (spec.md §4.6, S1_CONNECTED).
func (c *GlobalConfig) AllowlistEnabled() bool {
	return c.allowlistActive
}

// cliFlags holds the raw pflag-parsed values before merging with an
// optional file layer and validation. The *Set fields distinguish "flag
// not given" from "flag given its zero value" so file values aren't
// clobbered by flags the user never passed.
type cliFlags struct {
	configPath string
	listenIP   string
	listenPort int
	username   string
	password   string
	bindIP     string
	whitelist  string
	authOnce   bool
	quiet      bool
	reverseIP  string
	bridgePort int

	listenIPSet   bool
	listenPortSet bool
	usernameSet   bool
	passwordSet   bool
	bindIPSet     bool
	whitelistSet  bool
	authOnceSet   bool
	quietSet      bool
	reverseIPSet  bool
	bridgePortSet bool
}

// buildConfig merges an optional YAML file with CLI flags (flags always
// win) into a validated GlobalConfig plus the initial static whitelist of
// net.IPs to seed the AuthIPSet with.
func buildConfig(flags *cliFlags) (*GlobalConfig, []net.IP, error) {
	var fc fileConfig
	if flags.configPath != "" {
		loaded, err := loadConfigFile(flags.configPath)
		if err != nil {
			return nil, nil, err
		}
		fc = *loaded
	}

	cfg := &GlobalConfig{
		ListenIP:    "0.0.0.0",
		ListenPort:  1080,
		ReverseHost: fc.ReverseIP,
		BridgePort:  fc.BridgePort,
		Username:    fc.Username,
		Password:    fc.Password,
		AuthOnce:    fc.AuthOnce,
		Quiet:       fc.Quiet,
	}
	if fc.ListenIP != "" {
		cfg.ListenIP = fc.ListenIP
	}
	if fc.ListenPort != 0 {
		cfg.ListenPort = fc.ListenPort
	}

	whitelistCSV := strings.Join(fc.Whitelist, ",")

	if flags.listenIPSet {
		cfg.ListenIP = flags.listenIP
	}
	if flags.listenPortSet {
		cfg.ListenPort = flags.listenPort
	}
	if flags.usernameSet {
		cfg.Username = flags.username
	}
	if flags.passwordSet {
		cfg.Password = flags.password
	}
	if flags.authOnceSet {
		cfg.AuthOnce = flags.authOnce
	}
	if flags.quietSet {
		cfg.Quiet = flags.quiet
	}
	if flags.reverseIPSet {
		cfg.ReverseHost = flags.reverseIP
	}
	if flags.bridgePortSet {
		cfg.BridgePort = flags.bridgePort
	}
	if flags.whitelistSet {
		whitelistCSV = flags.whitelist
	}

	bindIP := fc.BindIP
	if flags.bindIPSet {
		bindIP = flags.bindIP
	}
	if bindIP != "" {
		ip := net.ParseIP(bindIP)
		if ip == nil {
			return nil, nil, fmt.Errorf("config: invalid bind address %q", bindIP)
		}
		cfg.BindAddr = ip
	}

	var whitelist []net.IP
	if whitelistCSV != "" {
		for _, host := range strings.Split(whitelistCSV, ",") {
			host = strings.TrimSpace(host)
			if host == "" {
				continue
			}
			ip, err := resolveOne(host, 0)
			if err != nil {
				return nil, nil, fmt.Errorf("config: failed to resolve whitelist entry %q: %w", host, err)
			}
			whitelist = append(whitelist, ip)
		}
	}
	cfg.allowlistActive = cfg.AuthOnce || len(whitelist) > 0

	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	// -c alone is undefined in the original; this repo requires -c to be
	// paired with -C rather than replicate the ambiguity (spec.md §9).
	if cfg.ReverseHost != "" && cfg.BridgePort == 0 {
		return nil, nil, fmt.Errorf("config: reverse mode (-c) requires bridge mode (-C)")
	}
	if cfg.ReverseHost != "" {
		// The original reuses the listen port as the connect port in
		// reverse mode; there is no separate flag for it.
		cfg.ReversePort = cfg.ListenPort
	}

	return cfg, whitelist, nil
}

func (c *GlobalConfig) validate() error {
	if (c.Username != "") != (c.Password != "") {
		return fmt.Errorf("config: user and pass must be used together")
	}
	if c.allowlistActive && c.Password == "" {
		return fmt.Errorf("config: -1/-w options must be used together with user/pass")
	}
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("config: listen port %d out of range", c.ListenPort)
	}
	if c.BridgePort < 0 || c.BridgePort > 65535 {
		return fmt.Errorf("config: bridge port %d out of range", c.BridgePort)
	}
	return nil
}
