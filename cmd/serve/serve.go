package serve

import (
	"context"
	"net/netip"
	"os"
	"time"

	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/ethman/config"
	"github.com/stratastor/ethman/internal/constants"
	"github.com/stratastor/ethman/internal/events"
	"github.com/stratastor/ethman/pkg/ethernet"
	"github.com/stratastor/ethman/pkg/ethernet/drivers/netlink"
	"github.com/stratastor/ethman/pkg/ethernet/drivers/sim"
	"github.com/stratastor/ethman/pkg/lifecycle"
	"github.com/stratastor/ethman/pkg/server"
	"github.com/stratastor/logger"
)

var detached bool

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Ethman server",
		Run:   runServe,
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) {
	lcfg := config.NewLoggerConfig(config.GetConfig())
	log, err := logger.NewTag(lcfg, "serve")
	if err != nil {
		panic(err)
	}

	ec := config.GetConfig()
	pidFile := constants.EthmanPIDFilePath
	// Check for existing instance before proceeding
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		log.Error("Failed to start", "err", err)
		os.Exit(1)
	}

	if detached {
		ctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			LogFileName: ec.Logs.Path,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
			Args:        []string{"ethman", "serve"},
		}

		d, err := ctx.Reborn()
		if err != nil {
			log.Error("Failed to start daemon", "err", err)
			os.Exit(1)
		}

		if d != nil {
			log.Info("Ethman is running as a daemon")
			return
		}
		defer ctx.Release()
	}

	startServer()
}

func startServer() {
	lcfg := config.NewLoggerConfig(config.GetConfig())
	log, err := logger.NewTag(lcfg, "serve")
	if err != nil {
		panic(err)
	}
	cfg := config.GetConfig()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Register the context canceller
	lifecycle.RegisterContextCanceller(cancel)

	busLog, err := logger.NewTag(lcfg, "events")
	if err != nil {
		panic(err)
	}
	bus := events.NewBus(256, busLog)

	driverLog, err := logger.NewTag(lcfg, "driver")
	if err != nil {
		panic(err)
	}

	var (
		driver ethernet.Driver
		netifs ethernet.NetifRegistry
	)
	switch cfg.Ethernet.Driver {
	case "sim":
		driver = sim.New(bus, driverLog)
		netifs = sim.NewRegistry()
	default:
		driver = netlink.New(cfg.Ethernet.Interface, bus, driverLog)
		netifs = netlink.NewRegistry(cfg.Ethernet.Interface, driverLog)
	}

	ethLog, err := logger.NewTag(lcfg, "ethernet")
	if err != nil {
		panic(err)
	}
	manager := ethernet.NewManager(driver, netifs, bus, ethLog)

	lifecycle.RegisterShutdownHook(func() {
		log.Info("Shutting down ethernet controller...")
		if err := manager.Disconnect(); err != nil {
			log.Error("Error during disconnect", "err", err)
		}
		if err := manager.Cleanup(); err != nil {
			log.Error("Error during cleanup", "err", err)
		}
		bus.Close()
	})

	// Register shutdown hook for server cleanup
	lifecycle.RegisterShutdownHook(func() {
		log.Info("Shutting down server...")
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Error during server shutdown", "err", err)
		}
	})

	// Start handling lifecycle signals (e.g., SIGTERM, SIGHUP)
	go lifecycle.HandleSignals(ctx)

	if err := manager.InitializeAsync(managerConfig(cfg)); err != nil {
		log.Error("Ethernet initialization failed", "err", err)
	}

	// Start the server
	log.Info("Starting Ethman server", "port", cfg.Server.Port)
	if err := server.Start(ctx, cfg.Server.Port, manager); err != nil {
		log.Error("Failed to start server", "err", err)
	}
}

// managerConfig translates the file configuration into a controller
// config, falling back to defaults for unparsable durations.
func managerConfig(cfg *config.Config) ethernet.Config {
	ec := cfg.Ethernet

	c := ethernet.DefaultConfig().
		WithHostname(ec.Hostname).
		WithPhy(ec.Phy.Addr, ec.Phy.MDC, ec.Phy.MDIO, ec.Phy.PowerPin).
		WithClock(ethernet.ClockMode(ec.Phy.ClockMode))

	if !ec.DHCP {
		lease := ethernet.StaticLease{}
		if addr, err := netip.ParseAddr(ec.Static.IP); err == nil {
			lease.IP = addr
		}
		if addr, err := netip.ParseAddr(ec.Static.Gateway); err == nil {
			lease.Gateway = addr
		}
		if addr, err := netip.ParseAddr(ec.Static.Netmask); err == nil {
			lease.Netmask = addr
		}
		if len(ec.Static.DNS) > 0 {
			if addr, err := netip.ParseAddr(ec.Static.DNS[0]); err == nil {
				lease.DNS1 = addr
			}
		}
		if len(ec.Static.DNS) > 1 {
			if addr, err := netip.ParseAddr(ec.Static.DNS[1]); err == nil {
				lease.DNS2 = addr
			}
		}
		c = c.WithStaticLease(lease)
	}

	c = c.WithReconnect(ethernet.ReconnectPolicy{
		Enabled:      ec.Reconnect.Auto,
		MaxRetries:   ec.Reconnect.MaxAttempts,
		InitialDelay: parseDuration(ec.Reconnect.InitialDelay, time.Second),
		MaxDelay:     parseDuration(ec.Reconnect.MaxDelay, 30*time.Second),
	})
	c = c.WithMonitor(ethernet.MonitorPolicy{
		Enabled:  ec.Monitor.Enabled,
		Interval: parseDuration(ec.Monitor.Interval, 5*time.Second),
	})
	c.TrustWindow = parseDuration(ec.TrustWindow, ethernet.DefaultTrustWindow)

	return c
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
