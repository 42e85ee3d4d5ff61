package pinctrl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// PinState is one row of `pinctrl get`.
type PinState struct {
	Pin     int
	Mode    string // ip, op, a0..a5, no
	Pull    string // pu, pd, pn
	Drive   string // dh, dl; empty for inputs
	Level   string // hi, lo, --
	Comment string
}

// High reports whether the parsed level is "hi".
func (s PinState) High() bool {
	return s.Level == "hi"
}

// Output reports whether the pin is configured as an output.
func (s PinState) Output() bool {
	return s.Mode == "op"
}

// e.g. " 17: op -- pn | lo // GPIO17 = output"
var getLine = regexp.MustCompile(`^\s*(\d+):\s+(\S+)\s+(.*?)\s+\|\s+(\S+)\s+//\s+(.*GPIO(\d+).*)$`)

var runCommand = func(args ...string) ([]byte, error) {
	return exec.Command("pinctrl", args...).CombinedOutput()
}

// ReadAllPins runs `pinctrl get` and indexes the result by pin number.
func ReadAllPins() (map[int]PinState, error) {
	out, err := runCommand("get")
	if err != nil {
		return nil, fmt.Errorf("failed to execute pinctrl get: %w", err)
	}

	states, err := parseGetOutput(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("error scanning pinctrl output: %w", err)
	}
	return states, nil
}

func parseGetOutput(r io.Reader) (map[int]PinState, error) {
	states := make(map[int]PinState)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if state, ok := parseLine(scanner.Text()); ok {
			states[state.Pin] = state
		}
	}
	return states, scanner.Err()
}

func parseLine(line string) (PinState, bool) {
	m := getLine.FindStringSubmatch(line)
	if m == nil {
		return PinState{}, false
	}

	pin, err := strconv.Atoi(m[1])
	if err != nil {
		return PinState{}, false
	}
	state := PinState{Pin: pin, Mode: m[2], Level: m[4], Comment: m[5]}

	// first pull and first drive option win
	for _, opt := range strings.Fields(m[3]) {
		switch opt {
		case "pu", "pd", "pn":
			if state.Pull == "" {
				state.Pull = opt
			}
		case "dh", "dl":
			if state.Drive == "" {
				state.Drive = opt
			}
		}
	}
	return state, true
}

// ReadPin returns the PinState for a specific GPIO pin
func ReadPin(pin int) (*PinState, error) {
	all, err := ReadAllPins()
	if err != nil {
		return nil, err
	}
	state, ok := all[pin]
	if !ok {
		return nil, fmt.Errorf("pin %d not found in pinctrl output", pin)
	}
	return &state, nil
}

// ReadLevel performs a fast read of the logic level of a pin using `pinctrl lev <pin>`
func ReadLevel(pin int) (bool, error) {
	out, err := runCommand("lev", fmt.Sprint(pin))
	if err != nil {
		return false, fmt.Errorf("failed to read level for pin %d: %w", pin, err)
	}
	return parseLevelOutput(string(out))
}

func parseLevelOutput(output string) (bool, error) {
	trimmed := strings.TrimSpace(output)
	switch trimmed {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected output from pinctrl lev: %q", trimmed)
	}
}

// SetPin applies one or more pinctrl set options to the specified GPIO pin
// Example: SetPin(17, "op", "pn", "dh") sets pin 17 as output, no pull, drive high
func SetPin(pin int, opts ...string) error {
	args := []string{"set", fmt.Sprint(pin)}
	args = append(args, opts...)
	out, err := runCommand(args...)
	if err != nil {
		return fmt.Errorf("pinctrl set failed: %s (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SetCommand renders the shell form of SetPin, as written to boot scripts.
func SetCommand(pin int, opts ...string) string {
	return strings.TrimSpace(fmt.Sprintf("pinctrl set %d %s", pin, strings.Join(opts, " ")))
}
