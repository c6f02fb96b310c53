package demo

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/andydunstall/drift/gossip"
	"github.com/andydunstall/drift/pkg/log"
)

type AdminConfig struct {
	// BindAddr is the address to bind the admin HTTP server to.
	BindAddr string `json:"bind_addr" yaml:"bind_addr"`
}

func (c *AdminConfig) Validate() error {
	if c.BindAddr == "" {
		return fmt.Errorf("missing bind addr")
	}
	return nil
}

func (c *AdminConfig) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.BindAddr,
		"admin.bind-addr",
		c.BindAddr,
		`
The host/port to bind the admin HTTP server to.

The admin server exposes /healthz, /metrics and /status/gossip.`,
	)
}

type Config struct {
	// Nodes is the number of gossip shells to run.
	Nodes int `json:"nodes" yaml:"nodes"`

	// Fanout is how many peers each shell gossips with per round, or 0
	// for every peer.
	Fanout int `json:"fanout" yaml:"fanout"`

	Gossip gossip.Config `json:"gossip" yaml:"gossip"`

	Admin AdminConfig `json:"admin" yaml:"admin"`

	Log log.Config `json:"log" yaml:"log"`
}

func DefaultConfig() Config {
	return Config{
		Nodes:  3,
		Fanout: 0,
		Gossip: gossip.DefaultConfig(),
		Admin: AdminConfig{
			BindAddr: ":7002",
		},
		Log: log.Config{
			Level: "info",
		},
	}
}

func (c *Config) Validate() error {
	if c.Nodes < 2 {
		return fmt.Errorf("need at least 2 nodes")
	}
	if c.Fanout < 0 {
		return fmt.Errorf("invalid fanout")
	}
	if err := c.Gossip.Validate(); err != nil {
		return fmt.Errorf("gossip: %w", err)
	}
	if err := c.Admin.Validate(); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(
		&c.Nodes,
		"nodes",
		c.Nodes,
		`
The number of gossip shells to run in the demo cluster.`,
	)

	fs.IntVar(
		&c.Fanout,
		"fanout",
		c.Fanout,
		`
How many peers each shell gossips with per round.

'0' gossips with every known peer.`,
	)

	c.Gossip.RegisterFlags(fs)
	c.Admin.RegisterFlags(fs)
	c.Log.RegisterFlags(fs)
}
