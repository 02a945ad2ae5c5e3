package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/audiohal/cmd"
	"github.com/smazurov/audiohal/internal/api"
	"github.com/smazurov/audiohal/internal/config"
	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/internal/metrics"
	"github.com/smazurov/audiohal/internal/mqtt"
	"github.com/smazurov/audiohal/internal/systemd"
	"github.com/smazurov/audiohal/internal/version"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/simhal"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8091" toml:"server.port" env:"SERVER_PORT"`

	// HAL settings
	Fixtures      string `help:"Device fixture file; the null device is used when empty" toml:"hal.fixtures" env:"HAL_FIXTURES"`
	WatchFixtures bool   `help:"Reload the fixture file when it changes" default:"true" toml:"hal.watch_fixtures" env:"HAL_WATCH_FIXTURES"`
	SettleTimeout string `help:"Time to wait for device list and sample rate changes" default:"2s" toml:"hal.settle_timeout" env:"HAL_SETTLE_TIMEOUT"`
	SettleDelay   string `help:"Simulated delay before a nominal rate change takes effect" default:"50ms" toml:"hal.settle_delay" env:"HAL_SETTLE_DELAY"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// MQTT settings
	MQTTEnabled  bool   `help:"Mirror device state to an MQTT broker" default:"false" toml:"mqtt.enabled" env:"MQTT_ENABLED"`
	MQTTBroker   string `help:"MQTT broker URL" default:"tcp://localhost:1883" toml:"mqtt.broker" env:"MQTT_BROKER"`
	MQTTClientID string `help:"MQTT client ID" default:"audiohal" toml:"mqtt.client_id" env:"MQTT_CLIENT_ID"`
	MQTTPrefix   string `help:"MQTT topic prefix" default:"audiohal" toml:"mqtt.prefix" env:"MQTT_PREFIX"`
	MQTTUsername string `help:"MQTT username" toml:"mqtt.username" env:"MQTT_USERNAME"`
	MQTTPassword string `help:"MQTT password" toml:"mqtt.password" env:"MQTT_PASSWORD"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingRegistry string `help:"Registry logging level" default:"info" toml:"logging.registry" env:"LOGGING_REGISTRY"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingMQTT     string `help:"MQTT logging level" default:"info" toml:"logging.mqtt" env:"LOGGING_MQTT"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := config.LoggingConfig(opts.Config)
		loggingConfig.Level = opts.LoggingLevel
		loggingConfig.Format = opts.LoggingFormat
		loggingConfig.Modules["registry"] = opts.LoggingRegistry
		loggingConfig.Modules["api"] = opts.LoggingAPI
		loggingConfig.Modules["mqtt"] = opts.LoggingMQTT
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")
		pid := os.Getpid()

		settleTimeout, err := time.ParseDuration(opts.SettleTimeout)
		if err != nil {
			settleTimeout = 2 * time.Second
		}
		settleDelay, err := time.ParseDuration(opts.SettleDelay)
		if err != nil {
			settleDelay = 50 * time.Millisecond
		}

		fixture := simhal.Fixture{Devices: []simhal.DeviceSpec{simhal.NullDevice()}}
		if opts.Fixtures != "" {
			loaded, err := simhal.LoadFixture(opts.Fixtures)
			if err != nil {
				logger.Error("Failed to load device fixture", "path", opts.Fixtures, "error", err)
				os.Exit(1)
			}
			fixture = loaded
		}
		hal, err := simhal.NewWithFixture(fixture, simhal.WithProcessID(pid), simhal.WithSettleDelay(settleDelay))
		if err != nil {
			logger.Error("Failed to build HAL", "error", err)
			os.Exit(1)
		}

		registry := coreaudio.NewRegistry(hal,
			coreaudio.WithProcessID(pid),
			coreaudio.WithSettleTimeout(settleTimeout),
			coreaudio.WithLogger(logging.GetLogger("registry")),
			coreaudio.WithObserver(metrics.Observer{}),
		)

		// Create event bus for in-process event handling
		eventBus := events.New()
		bridge := events.NewBridge(registry, eventBus, logging.GetLogger("events"))
		collector := metrics.NewDeviceCollector(eventBus)
		logging.OnEntry(func(e logging.Entry) {
			events.Publish(eventBus, events.LogEntry(e))
		})

		server := api.NewServer(&api.Options{
			AuthUsername:   opts.AuthUsername,
			AuthPassword:   opts.AuthPassword,
			Registry:       registry,
			Bus:            eventBus,
			MetricsHandler: metrics.Handler(),
		})

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
		var watcher *config.Watcher[simhal.Fixture]
		var mqttClient *mqtt.Client
		var mqttBridge *mqtt.Bridge

		hooks.OnStart(func() {
			// Subscribers first so the initial device list is observed
			collector.Start()
			bridge.Start()
			if startErr := registry.Start(); startErr != nil {
				logger.Error("Failed to start registry", "error", startErr)
				os.Exit(1)
			}

			if opts.Fixtures != "" && opts.WatchFixtures {
				w, watchErr := config.WatchFixtures(opts.Fixtures, hal, logging.GetLogger("config"))
				if watchErr != nil {
					logger.Warn("Failed to watch device fixture", "path", opts.Fixtures, "error", watchErr)
				} else {
					watcher = w
				}
			}

			if opts.MQTTEnabled {
				mqttLogger := logging.GetLogger("mqtt")
				client, connErr := mqtt.Connect(mqtt.Config{
					Broker:   opts.MQTTBroker,
					ClientID: opts.MQTTClientID,
					Username: opts.MQTTUsername,
					Password: opts.MQTTPassword,
					Prefix:   opts.MQTTPrefix,
					QoS:      1,
				}, mqttLogger)
				if connErr != nil {
					logger.Warn("MQTT disabled", "broker", opts.MQTTBroker, "error", connErr)
				} else {
					mqttClient = client
					mqttBridge = mqtt.NewBridge(client, client.Topics(), eventBus, registry, mqttLogger)
					if startErr := mqttBridge.Start(); startErr != nil {
						logger.Warn("Failed to start MQTT bridge", "error", startErr)
					}
				}
			}

			notifier.Ready()

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if mqttBridge != nil {
				mqttBridge.Stop()
			}
			if mqttClient != nil {
				mqttClient.Close()
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping fixture watcher", "error", stopErr)
				}
			}

			registry.Stop()
			bridge.Stop()
			collector.Stop()
		})
	})

	cli.Root().Version = version.String()
	cli.Root().AddCommand(cmd.CreateDevicesCmd())
	cli.Root().AddCommand(cmd.CreateValidateFixtureCmd())

	// Run the CLI
	cli.Run()
}
