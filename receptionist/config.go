package receptionist

import (
	"fmt"

	"github.com/spf13/pflag"
)

type EtcdConfig struct {
	// Endpoints are the etcd endpoints to connect to.
	Endpoints []string `json:"endpoints" yaml:"endpoints"`

	// Prefix is the etcd key prefix registry entries are stored under.
	Prefix string `json:"prefix" yaml:"prefix"`

	// TTL is the registration lease TTL in seconds. Entries for
	// processes that stop renewing their lease expire after the TTL.
	TTL int64 `json:"ttl" yaml:"ttl"`
}

func (c *EtcdConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("missing endpoints")
	}
	if c.Prefix == "" {
		return fmt.Errorf("missing prefix")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("missing ttl")
	}
	return nil
}

func (c *EtcdConfig) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(
		&c.Endpoints,
		"receptionist.etcd.endpoints",
		c.Endpoints,
		`
The etcd endpoints to connect to.`,
	)

	fs.StringVar(
		&c.Prefix,
		"receptionist.etcd.prefix",
		c.Prefix,
		`
The etcd key prefix registry entries are stored under.

Use a distinct prefix per cluster when multiple clusters share an etcd
deployment.`,
	)

	fs.Int64Var(
		&c.TTL,
		"receptionist.etcd.ttl",
		c.TTL,
		`
The registration lease TTL in seconds.

Registry entries whose owning process stops renewing its lease are removed
after the TTL.`,
	)
}

func DefaultEtcdConfig() EtcdConfig {
	return EtcdConfig{
		Endpoints: []string{"localhost:2379"},
		Prefix:    "/drift/receptionist",
		TTL:       10,
	}
}
