package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thatsimonsguy/senseo-controller/internal/config"
	"github.com/thatsimonsguy/senseo-controller/internal/model"
	"github.com/thatsimonsguy/senseo-controller/internal/pinctrl"
)

// BootScript renders the pinctrl commands that park every button low and set
// the LED up as a pulled-up input.
func BootScript(pins model.PinConfig) string {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Senseo GPIO pin configuration at boot", "")

	write := func(label string, pin int, opts ...string) {
		lines = append(lines, fmt.Sprintf("# %s", label))
		lines = append(lines, pinctrl.SetCommand(pin, opts...))
		lines = append(lines, "")
	}

	write(string(model.RolePowerButton), pins.PowerButton, "op", "pn", "dl")
	write(string(model.RoleOneMugButton), pins.OneMugButton, "op", "pn", "dl")
	write(string(model.RoleTwoMugButton), pins.TwoMugButton, "op", "pn", "dl")
	write(string(model.RoleLED), pins.LED, "ip", "pu")

	return strings.Join(lines, "\n") + "\n"
}

func WriteStartupScript(cfg *config.Config, pins model.PinConfig) error {
	if err := os.MkdirAll(filepath.Dir(cfg.BootScriptFilePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(cfg.BootScriptFilePath, []byte(BootScript(pins)), 0755)
}

func InstallStartupService(cfg *config.Config) error {
	unitContents := fmt.Sprintf(`[Unit]
Description=Configure Senseo GPIO pins at boot
After=network.target

[Service]
Type=oneshot
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
RemainAfterExit=true

[Install]
WantedBy=multi-user.target
`, cfg.BootScriptFilePath)

	return os.WriteFile(cfg.OSServicePath, []byte(unitContents), 0644)
}

func RunStartupScript(cfg *config.Config) error {
	cmd := exec.Command("/bin/bash", cfg.BootScriptFilePath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// InstallMainService writes the unit that runs the API after the pins are set up.
func InstallMainService(cfg *config.Config) error {
	gpioUnitName := filepath.Base(cfg.OSServicePath)

	unit := fmt.Sprintf(`[Unit]
Description=Senseo coffee machine API
After=%s network-online.target
Requires=%s

[Service]
Type=simple
User=%s
ExecStart=%s -config-file %s -db %s
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, gpioUnitName, gpioUnitName, cfg.ServiceUser, cfg.ServiceBinary, cfg.ConfigFile, cfg.DBPath)

	return os.WriteFile(cfg.MainServicePath, []byte(unit), 0644)
}
