package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thalaguer/buzzer/internal/buzz"
	"github.com/thalaguer/buzzer/internal/config"
	"github.com/thalaguer/buzzer/internal/hid"
	"github.com/thalaguer/buzzer/internal/logging"
	"github.com/thalaguer/buzzer/internal/quiz"
	"github.com/thalaguer/buzzer/internal/ui"
)

const Version = "0.1.0"

func main() {
	// Check for subcommands first
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "monitor":
			runMonitor(os.Args[2:])
			return
		case "list-devices":
			runListDevices()
			return
		case "set-device", "select-device":
			runSetDevice(os.Args[2:])
			return
		case "help", "-h", "--help":
			printUsage()
			os.Exit(0)
		}
	}

	// Main command flags
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	version := flag.Bool("version", false, "print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if *version {
		ui.PrintVersion(Version)
		os.Exit(0)
	}

	cfg, watcher, log, err := loadEnvironment(*configPath, *verbose)
	if err != nil {
		ui.PrintFatalError("Startup failed", err.Error())
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Debug("received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg, watcher, log); err != nil && ctx.Err() == nil {
		ui.PrintFatalError("Driver error", err.Error())
		os.Exit(1)
	}
}

// loadEnvironment builds the config (file-backed with live reload when the
// file exists, defaults otherwise) and the logger.
func loadEnvironment(configPath string, verbose bool) (*config.Config, *config.Watcher, *zap.SugaredLogger, error) {
	var cfg *config.Config
	var watcher *config.Watcher

	if config.Exists(configPath) {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.File)
	if err != nil {
		return nil, nil, nil, err
	}

	if config.Exists(configPath) {
		w, err := config.NewWatcher(configPath, log)
		if err != nil {
			return nil, nil, nil, err
		}
		watcher = w
	}

	return cfg, watcher, log, nil
}

// run is the headless mode: initialize the receiver, log every edge, and
// keep the quiz engine fed until the context ends.
func run(ctx context.Context, cfg *config.Config, watcher *config.Watcher, log *zap.SugaredLogger) error {
	driver := buzz.New(hid.Opener{
		VendorID:  cfg.Device.VendorID,
		ProductID: cfg.Device.ProductID,
	}, buzz.WithLogger(log))

	unsubChange := driver.OnChange(func(e buzz.ButtonEvent) {
		log.Infow("button", "name", e.Button.Name, "controller", e.Button.Controller,
			"color", e.Button.Color, "state", e.State())
	})
	defer unsubChange()

	unsubErr := driver.OnError(func(err error) {
		log.Errorw("driver error", "error", err)
	})
	defer unsubErr()

	engine := quiz.NewEngine(driver, cfg.Quiz, log)
	engine.Start()
	defer engine.Stop()

	if watcher != nil {
		watcher.OnReload(func(c *config.Config) {
			engine.Apply(c.Quiz)
		})
		watcher.Start()
		defer watcher.Stop()
	}

	if err := driver.EnsureReady(ctx); err != nil {
		return err
	}
	log.Infow("listening for buzzer input")

	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return driver.Close(closeCtx)
}

func printUsage() {
	ui.PrintUsage(Version)
}

// runMonitor handles the monitor subcommand
func runMonitor(args []string) {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := config.Default()
	if config.Exists(*configPath) {
		loaded, err := config.Load(*configPath)
		if err != nil {
			ui.PrintFatalError("Failed to load config", err.Error())
			os.Exit(1)
		}
		cfg = loaded
	}

	// The TUI owns the terminal; only log to a file if one is configured.
	log := zap.NewNop().Sugar()
	if cfg.Log.File != "" {
		fileLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
		if err != nil {
			ui.PrintFatalError("Failed to open log file", err.Error())
			os.Exit(1)
		}
		log = fileLog
	}

	driver := buzz.New(hid.Opener{
		VendorID:  cfg.Device.VendorID,
		ProductID: cfg.Device.ProductID,
	}, buzz.WithLogger(log))

	engine := quiz.NewEngine(driver, cfg.Quiz, log)
	engine.Start()
	defer engine.Stop()

	if err := ui.RunMonitor(driver, engine); err != nil {
		ui.PrintFatalError("Monitor failed", err.Error())
		os.Exit(1)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.Close(closeCtx); err != nil {
		ui.PrintError(err.Error())
	}
}

// runListDevices handles the list-devices subcommand
func runListDevices() {
	devices, err := hid.ListDevices()
	if err != nil {
		ui.PrintFatalError("Failed to list devices", err.Error())
		os.Exit(1)
	}
	uiDevices := make([]ui.DeviceInfo, len(devices))
	for i, d := range devices {
		uiDevices[i] = ui.DeviceInfo{
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
			IsBuzz:       hid.IsBuzzReceiver(d.VendorID, d.ProductID),
		}
	}
	ui.PrintDeviceList(uiDevices)
}

// runSetDevice handles the set-device subcommand
func runSetDevice(args []string) {
	fs := flag.NewFlagSet("set-device", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	fs.Usage = func() {
		ui.PrintSetDeviceUsage()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	remaining := fs.Args()

	var vendorID, productID uint16

	if len(remaining) >= 2 {
		// Parse provided IDs
		vid, err := parseID(remaining[0])
		if err != nil {
			ui.PrintFatalError("Invalid vendor_id", fmt.Sprintf("%q: %v", remaining[0], err))
			os.Exit(1)
		}
		pid, err := parseID(remaining[1])
		if err != nil {
			ui.PrintFatalError("Invalid product_id", fmt.Sprintf("%q: %v", remaining[1], err))
			os.Exit(1)
		}
		vendorID = vid
		productID = pid
	} else if len(remaining) == 1 {
		ui.PrintFatalError("Invalid arguments", "Both vendor_id and product_id must be provided, or neither")
		os.Exit(1)
	} else {
		// Interactive selection
		device, err := selectDevice()
		if err != nil {
			ui.PrintFatalError("Device selection failed", err.Error())
			os.Exit(1)
		}
		if device == nil {
			fmt.Println(ui.Muted("No device selected"))
			os.Exit(0)
		}
		vendorID = device.VendorID
		productID = device.ProductID
	}

	// Update or create config file
	if config.Exists(*configPath) {
		if err := config.UpdateDeviceIDs(*configPath, vendorID, productID); err != nil {
			ui.PrintFatalError("Failed to update config", err.Error())
			os.Exit(1)
		}
		ui.PrintDeviceUpdated(*configPath, vendorID, productID)
	} else {
		if err := config.CreateDefaultConfig(*configPath, vendorID, productID); err != nil {
			ui.PrintFatalError("Failed to create config", err.Error())
			os.Exit(1)
		}
		ui.PrintDeviceCreated(*configPath, vendorID, productID)
	}
}

// parseID parses a vendor or product ID from string (supports hex with 0x prefix or decimal)
func parseID(s string) (uint16, error) {
	s = strings.TrimSpace(s)

	var val uint64
	var err error

	if strings.HasPrefix(strings.ToLower(s), "0x") {
		val, err = strconv.ParseUint(s[2:], 16, 16)
	} else {
		val, err = strconv.ParseUint(s, 10, 16)
	}

	if err != nil {
		return 0, err
	}

	return uint16(val), nil
}

// selectDevice displays an interactive device selection menu using huh
func selectDevice() (*ui.DeviceInfo, error) {
	devices, err := hid.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no HID devices found")
	}

	// Deduplicate devices by vendor/product ID
	seen := make(map[uint32]bool)
	var unique []ui.DeviceInfo

	for _, d := range devices {
		key := uint32(d.VendorID)<<16 | uint32(d.ProductID)
		if seen[key] {
			continue
		}
		seen[key] = true

		// Skip devices with no vendor/product ID
		if d.VendorID == 0 && d.ProductID == 0 {
			continue
		}

		unique = append(unique, ui.DeviceInfo{
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
			IsBuzz:       hid.IsBuzzReceiver(d.VendorID, d.ProductID),
		})
	}

	if len(unique) == 0 {
		return nil, fmt.Errorf("no identifiable HID devices found")
	}

	return ui.SelectDevice(unique)
}
