package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thatsimonsguy/senseo-controller/db"
	"github.com/thatsimonsguy/senseo-controller/internal/config"
	"github.com/thatsimonsguy/senseo-controller/internal/model"
	"github.com/thatsimonsguy/senseo-controller/internal/pinctrl"
	"github.com/thatsimonsguy/senseo-controller/system/startup"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var dbPath, configFile, command string
	var pin int
	flag.StringVar(&dbPath, "db", "data/senseo.db", "Path to the SQLite pin registry")
	flag.StringVar(&configFile, "config-file", config.DefaultConfigFile, "Path to the pin configuration file")
	flag.StringVar(&command, "cmd", "", "Command to run: show-pins, seed-pins, pin-state, write-boot-script, run-boot-script, install-service")
	flag.IntVar(&pin, "pin", -1, "BCM pin number for pin-state")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of senseo-debug:")
		fmt.Println("  -db string\tPath to the SQLite pin registry (default 'data/senseo.db')")
		fmt.Println("  -config-file string\tPath to the pin configuration file")
		fmt.Println("  -cmd string\tCommand to run: show-pins, seed-pins, pin-state, write-boot-script, run-boot-script, install-service")
		fmt.Println("  -pin int\tBCM pin number for pin-state")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "show-pins":
		var lines []string
		lines, err = db.ShowPinsCLI(dbPath)
		for _, line := range lines {
			fmt.Println(line)
		}
	case "seed-pins":
		var cfg *config.Config
		if cfg, err = config.LoadFile(configFile); err == nil {
			err = db.SeedPinsCLI(dbPath, cfg.Pins())
		}
	case "pin-state":
		if pin < 0 {
			fmt.Println("Error: -pin is required")
			os.Exit(1)
		}
		var state *pinctrl.PinState
		if state, err = pinctrl.ReadPin(pin); err == nil {
			direction := "input"
			if state.Output() {
				direction = "output"
			}
			fmt.Printf("GPIO%d %s mode=%s pull=%s drive=%s level=%s\n", state.Pin, direction, state.Mode, state.Pull, state.Drive, state.Level)
		}
	case "write-boot-script":
		var cfg *config.Config
		var pins model.PinConfig
		if cfg, pins, err = loadPins(configFile, dbPath); err == nil {
			err = startup.WriteStartupScript(cfg, pins)
		}
	case "run-boot-script":
		var cfg *config.Config
		if cfg, err = config.LoadFile(configFile); err == nil {
			err = startup.RunStartupScript(cfg)
		}
	case "install-service":
		var cfg *config.Config
		var pins model.PinConfig
		if cfg, pins, err = loadPins(configFile, dbPath); err == nil {
			err = installServices(cfg, pins)
		}
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}

// loadPins reads the config and syncs the registry at dbPath to it.
func loadPins(configFile, dbPath string) (*config.Config, model.PinConfig, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, model.PinConfig{}, err
	}
	cfg.DBPath = dbPath
	pins, err := db.SyncPinsCLI(dbPath, cfg.Pins())
	return cfg, pins, err
}

func installServices(cfg *config.Config, pins model.PinConfig) error {
	if err := startup.WriteStartupScript(cfg, pins); err != nil {
		return err
	}
	if err := startup.InstallStartupService(cfg); err != nil {
		return err
	}
	return startup.InstallMainService(cfg)
}
