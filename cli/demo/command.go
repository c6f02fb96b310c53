package demo

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	yaml "github.com/goccy/go-yaml"
	rungroup "github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andydunstall/drift/actor"
	"github.com/andydunstall/drift/admin"
	driftconfig "github.com/andydunstall/drift/pkg/config"
	"github.com/andydunstall/drift/gossip"
	"github.com/andydunstall/drift/gossip/counter"
	"github.com/andydunstall/drift/pkg/log"
	"github.com/andydunstall/drift/receptionist"
)

// streamID is the gossip stream the demo converges.
var streamID = gossip.NewIdentifier("counter")

// discoveryKey is the receptionist key the demo shells register under.
const discoveryKey = "demo/gossip"

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "run an in-process gossip cluster",
		Long: `Run an in-process gossip cluster.

Starts the configured number of gossip shells in one process, discovering
one another through a receptionist key. Each shell seeds the 'counter'
stream with its own value, then the cluster gossips until every shell
holds the full set.

Shell status is exposed via the admin API.

Examples:
  # Start a five node demo cluster.
  drift demo --nodes 5

  # Gossip with at most two peers per round, every 100ms.
  drift demo --nodes 5 --fanout 2 --gossip.interval 100ms
`,
	}

	conf := DefaultConfig()

	var configPath string
	cmd.Flags().StringVar(
		&configPath,
		"config.path",
		"",
		`
YAML config file path.`,
	)

	var configExpandEnv bool
	cmd.Flags().BoolVar(
		&configExpandEnv,
		"config.expand-env",
		false,
		`
Whether to expand environment variables in the config file.

This will replaces references to ${VAR} or $VAR with the corresponding
environment variable. The replacement is case-sensitive.

References to undefined variables will be replaced with an empty string. A
default value can be given using form ${VAR:default}.`,
	)

	// Register flags and set default values.
	conf.RegisterFlags(cmd.Flags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			if err := driftconfig.Load(configPath, &conf, configExpandEnv); err != nil {
				fmt.Printf("load config: %s\n", err.Error())
				os.Exit(1)
			}
		}

		if err := conf.Validate(); err != nil {
			fmt.Printf("invalid config: %s\n", err.Error())
			os.Exit(1)
		}

		logger, err := log.NewLogger(conf.Log.Level, conf.Log.Subsystems)
		if err != nil {
			fmt.Printf("failed to setup logger: %s\n", err.Error())
			os.Exit(1)
		}

		if err := run(&conf, logger); err != nil {
			logger.Error("failed to run demo", zap.Error(err))
			os.Exit(1)
		}
	}

	return cmd
}

func run(conf *Config, logger log.Logger) error {
	logger.Info("starting drift demo", zap.Any("conf", conf))

	registry := prometheus.NewRegistry()

	system := actor.NewSystem("drift", logger)
	defer system.Close()

	recept := receptionist.NewLocal()

	controls := make([]*gossip.Control[counter.Set], conf.Nodes)
	for i := range controls {
		control, err := gossip.Start(
			system,
			fmt.Sprintf("gossip-%d", i),
			conf.Gossip,
			counter.NewFactory(conf.Fanout),
			gossip.WithDiscovery[counter.Set](
				gossip.ReceptionistListing[counter.Set](recept, discoveryKey),
			),
			gossip.WithLogger[counter.Set](logger),
		)
		if err != nil {
			return fmt.Errorf("start shell %d: %w", i, err)
		}
		// Seed each shell with its own value; the cluster converges on
		// the full set.
		control.Update(streamID, counter.NewSet(uint64(i)))
		controls[i] = control
	}

	// Register the first shell's metrics as representative; every shell
	// registering would collide on the collector names.
	controls[0].Metrics().Register(registry)

	adminServer := admin.NewServer(conf.Admin.BindAddr, registry, logger)
	adminServer.AddStatus("/gossip", gossip.NewStatusHandler(controls[0]))

	var group rungroup.Group

	// Termination handler.
	signalCtx, signalCancel := context.WithCancel(context.Background())
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	group.Add(func() error {
		select {
		case sig := <-signalCh:
			logger.Info(
				"received shutdown signal",
				zap.String("signal", sig.String()),
			)
			return nil
		case <-signalCtx.Done():
			return nil
		}
	}, func(error) {
		signalCancel()
	})

	// Admin server.
	group.Add(func() error {
		if err := adminServer.Serve(); err != nil {
			return fmt.Errorf("admin server serve: %w", err)
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), time.Second*10,
		)
		defer cancel()

		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown admin server", zap.Error(err))
		}
	})

	// Convergence watcher.
	watchCtx, watchCancel := context.WithCancel(context.Background())
	group.Add(func() error {
		watchConvergence(watchCtx, conf, controls, logger)
		<-watchCtx.Done()
		return nil
	}, func(error) {
		watchCancel()
	})

	if err := group.Run(); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

// watchConvergence polls each shell's counter values until every shell
// holds the same set, then prints the first shell's status.
func watchConvergence(
	ctx context.Context,
	conf *Config,
	controls []*gossip.Control[counter.Set],
	logger log.Logger,
) {
	ticker := time.NewTicker(conf.Gossip.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}

		values, err := inspectAll(ctx, controls)
		if err != nil {
			logger.Warn("failed to inspect shells", zap.Error(err))
			continue
		}

		if !converged(values, conf.Nodes) {
			continue
		}

		logger.Info(
			"cluster converged",
			zap.Int("nodes", len(controls)),
			zap.Uint64s("values", values[0]),
		)

		status, err := controls[0].Status(time.Second * 3)
		if err != nil {
			logger.Warn("failed to query status", zap.Error(err))
			return
		}
		b, err := yaml.Marshal(status)
		if err != nil {
			logger.Error("failed to marshal status", zap.Error(err))
			return
		}
		fmt.Println(string(b))
		return
	}
}

// inspectAll queries every shell's counter values via the side channel.
func inspectAll(
	ctx context.Context,
	controls []*gossip.Control[counter.Set],
) ([][]uint64, error) {
	values := make([][]uint64, len(controls))

	g, ctx := errgroup.WithContext(ctx)
	for i, control := range controls {
		g.Go(func() error {
			ch := make(chan []uint64, 1)
			control.SideChannelTell(streamID, counter.Inspect(func(v []uint64) {
				ch <- v
			}))
			select {
			case v := <-ch:
				values[i] = v
				return nil
			case <-time.After(time.Second * 3):
				return fmt.Errorf("shell %d: inspect timeout", i)
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// converged reports whether every shell holds the full seeded set.
func converged(values [][]uint64, nodes int) bool {
	for _, shellValues := range values {
		if len(shellValues) != nodes {
			return false
		}
	}
	return true
}
