package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/internal/config"
	"github.com/thatsimonsguy/senseo-controller/internal/gpio"
	"github.com/thatsimonsguy/senseo-controller/internal/logging"
	"github.com/thatsimonsguy/senseo-controller/internal/simulator"
)

func main() {
	var configFile, driverKind, chip string
	var debug bool
	flag.StringVar(&configFile, "config-file", config.DefaultConfigFile, "Path to the pin configuration file")
	flag.StringVar(&driverKind, "driver", "", "GPIO driver (pinctrl or cdev); defaults to the config file's driver")
	flag.StringVar(&chip, "chip", "", "GPIO character device for the cdev driver")
	flag.BoolVar(&debug, "debug", false, "Log every LED change")
	flag.Usage = func() {
		fmt.Println("\nUsage of senseo-simulator:")
		fmt.Println("  senseo-simulator [flags] on|heat|off|read")
		fmt.Println()
		fmt.Println("  on\tBlink the LED like a heating machine")
		fmt.Println("  heat\tHold the LED like a ready machine")
		fmt.Println("  off\tTurn the LED off")
		fmt.Println("  read\tPrint the button levels every 0.5s")
		fmt.Println()
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	command := flag.Arg(0)

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if _, err := logging.Init(level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "senseo-simulator: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		log.Fatal().Err(err).Str("config_file", configFile).Msg("Failed to load config")
	}
	if driverKind == "" {
		driverKind = cfg.Driver
	}
	if chip == "" {
		chip = cfg.GPIOChip
	}

	driver, err := gpio.Open(driverKind, chip, false)
	if err != nil {
		log.Fatal().Err(err).Str("driver", driverKind).Msg("Failed to open GPIO driver")
	}

	sim, err := simulator.New(cfg.Pins(), driver, nil)
	if err != nil {
		driver.Close()
		log.Fatal().Err(err).Msg("Failed to set up simulator")
	}
	log.Info().Str("command", command).Msg("Starting the Senseo simulator")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "on":
		err = sim.On(ctx)
	case "heat":
		err = sim.Heat(ctx)
	case "off":
		err = sim.Off()
	case "read":
		err = sim.Read(ctx, func(b simulator.Buttons) {
			log.Info().
				Bool("power", b.Power).
				Bool("one_mug", b.OneMug).
				Bool("two_mug", b.TwoMug).
				Msg("Button levels")
		})
	default:
		fmt.Printf("Invalid command %q\n", command)
		flag.Usage()
		sim.Close()
		os.Exit(1)
	}

	if command != "off" {
		if cerr := sim.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to release simulator pins")
		}
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Simulator failed")
	}
	log.Info().Msg("Stopping coffee machine simulator")
}
