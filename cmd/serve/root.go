package serve

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vkoehler/memtrace/api"
	cmdUtil "github.com/vkoehler/memtrace/cmd/util"
	"github.com/vkoehler/memtrace/lib/cache"
	"github.com/vkoehler/memtrace/lib/cache/engines/memcached"
	"github.com/vkoehler/memtrace/lib/cache/engines/rowan"
	"github.com/vkoehler/memtrace/lib/recorder"
)

var (
	// ServeCmd represents the serve command
	ServeCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Start the memtrace server",
		Long:    `Start the memtrace server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is MEMTRACE_<flag> (e.g. MEMTRACE_LOG_LEVEL=debug)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "engine"
	ServeCmd.PersistentFlags().String(key, "rowan", cmdUtil.WrapString("Cache engine backing the snapshot store (rowan, memcached)"))

	key = "memcached-endpoints"
	ServeCmd.PersistentFlags().String(key, "localhost:11211", cmdUtil.WrapString("Comma-separated list of memcached server addresses (memcached engine only)"))

	key = "memcached-timeout"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("Request timeout in milliseconds for the memcached engine"))

	key = "ttl"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Lifetime in seconds of cached snapshots before eviction. 0 keeps them until memory pressure or restart"))

	key = "modules"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of module names to scan, in order"))

	key = "ignore-names"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of attribute names excluded from every scan"))

	key = "index-key"
	ServeCmd.PersistentFlags().String(key, recorder.DefaultIndexKey, cmdUtil.WrapString("Cache key holding the snapshot counter"))

	key = "record-prefix"
	ServeCmd.PersistentFlags().String(key, recorder.DefaultRecordPrefix, cmdUtil.WrapString("Cache key prefix for stored snapshots"))

	key = "sample-every"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Capture a snapshot every Nth handled HTTP request. 0 disables request-driven tracing"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig binds the flags to viper and validates the engine choice
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	switch viper.GetString("engine") {
	case string(cache.ImplRowan), string(cache.ImplMemcached):
		return nil
	default:
		return fmt.Errorf("invalid engine %s (expected one of: rowan, memcached)", viper.GetString("engine"))
	}
}

// run starts the memtrace server
func run(_ *cobra.Command, _ []string) error {
	logger, err := cmdUtil.NewLogger(viper.GetString("log-level"))
	if err != nil {
		return err
	}

	// create the cache backend
	var backend cache.Cache
	switch viper.GetString("engine") {
	case string(cache.ImplRowan):
		backend = rowan.New(&rowan.Options{
			TTL: time.Duration(viper.GetInt("ttl")) * time.Second,
		})
	case string(cache.ImplMemcached):
		backend, err = memcached.New(memcached.Options{
			Endpoints: cmdUtil.SplitList(viper.GetString("memcached-endpoints")),
			Timeout:   time.Duration(viper.GetInt("memcached-timeout")) * time.Millisecond,
			TTL:       time.Duration(viper.GetInt("ttl")) * time.Second,
		})
		if err != nil {
			return err
		}
	}
	defer func() { _ = backend.Close() }()

	// create the recorder on the process-wide module registry
	rec, err := recorder.New(recorder.Options{
		Cache: backend,
		Config: recorder.Config{
			Modules:      cmdUtil.SplitList(viper.GetString("modules")),
			IgnoreNames:  cmdUtil.SplitList(viper.GetString("ignore-names")),
			IndexKey:     viper.GetString("index-key"),
			RecordPrefix: viper.GetString("record-prefix"),
		},
		Logger: &logger,
	})
	if err != nil {
		return err
	}

	srv := api.NewServer(rec, api.ServerConfig{
		Endpoint:    viper.GetString("endpoint"),
		SampleEvery: viper.GetInt("sample-every"),
	}, &logger)

	return srv.ListenAndServe()
}
