package gossip

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// Interval is the mean interval between gossip rounds.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// IntervalJitter randomises each round interval to avoid shells
	// synchronising. Given jitter f, the effective interval is sampled
	// uniformly from [interval*(1-f), interval*(1+f)]. Must be in
	// [0, 1].
	IntervalJitter float64 `json:"interval_jitter" yaml:"interval_jitter"`

	// AckTimeout is how long a shell waits for a peer to acknowledge a
	// gossip payload before logging the send as lost.
	AckTimeout time.Duration `json:"ack_timeout" yaml:"ack_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Interval:       time.Second,
		IntervalJitter: 0.25,
		AckTimeout:     time.Second * 3,
	}
}

func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("missing interval")
	}
	if c.IntervalJitter < 0 || c.IntervalJitter > 1 {
		return fmt.Errorf("interval jitter not in [0, 1]")
	}
	if c.AckTimeout <= 0 {
		return fmt.Errorf("missing ack timeout")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.DurationVar(
		&c.Interval,
		"gossip.interval",
		c.Interval,
		`
The mean interval between gossip rounds.

Each round every active gossip stream selects peers to exchange payloads
with.`,
	)

	fs.Float64Var(
		&c.IntervalJitter,
		"gossip.interval-jitter",
		c.IntervalJitter,
		`
Randomises each round interval to avoid shells synchronising.

With jitter f the effective interval is sampled uniformly from
[interval*(1-f), interval*(1+f)]. Must be in [0, 1].`,
	)

	fs.DurationVar(
		&c.AckTimeout,
		"gossip.ack-timeout",
		c.AckTimeout,
		`
How long to wait for a peer to acknowledge a gossip payload.

On timeout the send is logged as lost and not retried. The next round
makes its own decisions.`,
	)
}
