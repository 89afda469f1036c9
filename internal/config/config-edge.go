// internal/config/config-edge.go
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/fisaks/lightedge/internal/logging"
	"github.com/google/uuid"
)

/* =========================
   Types
   ========================= */

type EdgeConfig struct {
	Broker  BrokerConfig  `json:"broker"`
	Feeds   FeedConfig    `json:"feeds"`
	Control ControlConfig `json:"control"`
	IO      IOConfig      `json:"io"`
}

type BrokerConfig struct {
	URL                string `json:"url"`
	ClientID           string `json:"clientId"`
	Username           string `json:"username"`
	Key                string `json:"key"`
	ConnectTimeoutMs   int    `json:"connectTimeoutMs"`
	PublishTimeoutMs   int    `json:"publishTimeoutMs"`
	SubscribeTimeoutMs int    `json:"subscribeTimeoutMs"`
	InboxSize          int    `json:"inboxSize"` // inbound messages buffered between loop cycles
}

// FeedConfig holds the opaque topic names of the five dashboard feeds.
type FeedConfig struct {
	LDR         string `json:"ldr"`
	Pot         string `json:"pot"`
	Button      string `json:"button"`
	ResetButton string `json:"resetButton"`
	LEDStatus   string `json:"ledStatus"`
}

type ControlConfig struct {
	PotTolerance      *int `json:"potTolerance"`  // deadband, 0 allowed
	DarkThreshold     *int `json:"darkThreshold"` // ambient strictly below is "dark"; 0 never dark
	PublishIntervalMs int  `json:"publishIntervalMs"`
	LoopDelayMs       int  `json:"loopDelayMs"`
	MinDuty           *int `json:"minDuty"` // lowest duty the LED visibly lights at
	MaxDuty           int  `json:"maxDuty"`
	InitialBrightness *int `json:"initialBrightness"`
}

type IOConfig struct {
	Driver           string        `json:"driver"` // "sim" | "modbus"
	ButtonsActiveLow *bool         `json:"buttonsActiveLow"`
	Sim              *SimConfig    `json:"sim,omitempty"`
	Modbus           *ModbusConfig `json:"modbus,omitempty"`
	GPIO             *GPIOConfig   `json:"gpio,omitempty"`
}

type SimConfig struct {
	LDR uint16 `json:"ldr"`
	Pot uint16 `json:"pot"`
}

// ModbusConfig describes the remote I/O module carrying the sensors and the LED driver.
type ModbusConfig struct {
	Type               string       `json:"type"` // "rtu" | "tcp"
	TCPAddr            string       `json:"tcpAddr"`
	Port               string       `json:"port"`
	Baud               int          `json:"baud"`
	DataBits           int          `json:"dataBits"`
	StopBits           int          `json:"stopBits"`
	Parity             string       `json:"parity"`
	TimeoutMs          int          `json:"timeoutMs"`
	SettleAfterWriteMs int          `json:"settleAfterWriteMs"`
	UnitId             uint8        `json:"unitId"`
	Debug              bool         `json:"debug"`
	Map                *ModbusIOMap `json:"map,omitempty"`
}

// ModbusIOMap addresses are zero-based protocol addresses.
type ModbusIOMap struct {
	LDRRegister       uint16 `json:"ldrRegister"`       // FC4 input register
	PotRegister       uint16 `json:"potRegister"`       // FC4 input register
	ToggleButtonInput uint16 `json:"toggleButtonInput"` // FC2 discrete input
	ModeButtonInput   uint16 `json:"modeButtonInput"`   // FC2 discrete input
	PWMRegister       uint16 `json:"pwmRegister"`       // FC6 holding register
	StatusCoil        uint16 `json:"statusCoil"`        // FC5 coil
}

// GPIOConfig moves the buttons and the status indicator to local GPIO lines.
type GPIOConfig struct {
	Chip             string `json:"chip"`
	ToggleButtonLine int    `json:"toggleButtonLine"`
	ModeButtonLine   int    `json:"modeButtonLine"`
	StatusLine       int    `json:"statusLine"`
}

const (
	DefaultPotTolerance      = 500
	DefaultDarkThreshold     = 20000
	DefaultPublishIntervalMs = 12000
	DefaultLoopDelayMs       = 50
	DefaultMinDuty           = 384
	DefaultMaxDuty           = 65535
	DefaultInboxSize         = 32
)

func DefaultModbusIOMap() *ModbusIOMap {
	return &ModbusIOMap{
		LDRRegister:       0,
		PotRegister:       1,
		ToggleButtonInput: 0,
		ModeButtonInput:   1,
		PWMRegister:       0,
		StatusCoil:        0,
	}
}

/* =========================
   Helpers
   ========================= */

func (b BrokerConfig) ConnectTimeout() time.Duration {
	return time.Duration(b.ConnectTimeoutMs) * time.Millisecond
}
func (b BrokerConfig) PublishTimeout() time.Duration {
	return time.Duration(b.PublishTimeoutMs) * time.Millisecond
}
func (b BrokerConfig) SubscribeTimeout() time.Duration {
	return time.Duration(b.SubscribeTimeoutMs) * time.Millisecond
}

func (c ControlConfig) LoopDelay() time.Duration {
	return time.Duration(c.LoopDelayMs) * time.Millisecond
}

func (m ModbusConfig) Timeout() time.Duration { return time.Duration(m.TimeoutMs) * time.Millisecond }
func (m ModbusConfig) SettleAfterWrite() time.Duration {
	return time.Duration(m.SettleAfterWriteMs) * time.Millisecond
}

func (c IOConfig) ActiveLow() bool {
	return c.ButtonsActiveLow == nil || *c.ButtonsActiveLow
}

func intPtr(v int) *int { return &v }

/* =========================
   Strict load + validate
   ========================= */

func LoadEdgeConfig(path string) (*EdgeConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()
	return LoadEdgeConfigFromReader(f)
}

func LoadEdgeConfigFromReader(r io.Reader) (*EdgeConfig, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	clean := stripJSONComments(raw)

	dec := json.NewDecoder(strings.NewReader(string(clean)))
	dec.DisallowUnknownFields()

	var cfg EdgeConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *EdgeConfig) Validate() error {
	var errs multiErr

	/* Broker */
	b := &c.Broker
	if strings.TrimSpace(b.URL) == "" {
		errs.add("broker.url is required")
	}
	if strings.TrimSpace(b.ClientID) == "" {
		b.ClientID = "lightedge-" + uuid.NewString()
	}
	if b.ConnectTimeoutMs <= 0 {
		b.ConnectTimeoutMs = 10000
	}
	if b.PublishTimeoutMs <= 0 {
		b.PublishTimeoutMs = 5000
	}
	if b.SubscribeTimeoutMs <= 0 {
		b.SubscribeTimeoutMs = 5000
	}
	if b.InboxSize <= 0 {
		b.InboxSize = DefaultInboxSize
	}

	/* Feeds */
	feeds := []struct{ name, topic string }{
		{"ldr", c.Feeds.LDR},
		{"pot", c.Feeds.Pot},
		{"button", c.Feeds.Button},
		{"resetButton", c.Feeds.ResetButton},
		{"ledStatus", c.Feeds.LEDStatus},
	}
	seen := map[string]string{}
	for _, f := range feeds {
		if strings.TrimSpace(f.topic) == "" {
			errs.addf("feeds.%s is required", f.name)
			continue
		}
		if other, dup := seen[f.topic]; dup {
			errs.addf("feeds.%s: topic %q already used by feeds.%s", f.name, f.topic, other)
			continue
		}
		seen[f.topic] = f.name
	}

	/* Control */
	ctl := &c.Control
	if ctl.PotTolerance == nil {
		ctl.PotTolerance = intPtr(DefaultPotTolerance)
	} else if *ctl.PotTolerance < 0 || *ctl.PotTolerance > 65535 {
		errs.add("control.potTolerance must be 0..65535")
	}
	if *ctl.PotTolerance == 0 {
		logging.Warn("potTolerance=0 configured, every potentiometer change claims brightness")
	}
	if ctl.DarkThreshold == nil {
		ctl.DarkThreshold = intPtr(DefaultDarkThreshold)
	} else if *ctl.DarkThreshold < 0 || *ctl.DarkThreshold > 65536 {
		errs.add("control.darkThreshold must be 0..65536")
	}
	if ctl.PublishIntervalMs == 0 {
		ctl.PublishIntervalMs = DefaultPublishIntervalMs
	} else if ctl.PublishIntervalMs < 0 {
		errs.add("control.publishIntervalMs cannot be negative")
	}
	if ctl.LoopDelayMs == 0 {
		ctl.LoopDelayMs = DefaultLoopDelayMs
	} else if ctl.LoopDelayMs < 0 {
		errs.add("control.loopDelayMs cannot be negative")
	}
	if ctl.MaxDuty == 0 {
		ctl.MaxDuty = DefaultMaxDuty
	}
	if ctl.MinDuty == nil {
		ctl.MinDuty = intPtr(DefaultMinDuty)
	}
	if *ctl.MinDuty < 0 || ctl.MaxDuty > 65535 || *ctl.MinDuty >= ctl.MaxDuty {
		errs.addf("control: need 0 <= minDuty < maxDuty <= 65535 (got %d..%d)", *ctl.MinDuty, ctl.MaxDuty)
	}
	if ctl.InitialBrightness == nil {
		ctl.InitialBrightness = intPtr(ctl.MaxDuty)
	} else if *ctl.InitialBrightness < 0 || *ctl.InitialBrightness > 65535 {
		errs.add("control.initialBrightness must be 0..65535")
	}

	/* IO */
	ioc := &c.IO
	ioc.Driver = strings.ToLower(ioc.Driver)
	if ioc.Driver == "" {
		ioc.Driver = "sim"
	}
	switch ioc.Driver {
	case "sim":
		if ioc.Sim == nil {
			ioc.Sim = &SimConfig{LDR: 30000, Pot: 32768}
		}
	case "modbus":
		if ioc.Modbus == nil {
			errs.add("io.modbus is required for driver=modbus")
		} else {
			validateModbus(ioc.Modbus, &errs)
		}
	default:
		errs.addf("io.driver must be 'sim' or 'modbus' (got %q)", ioc.Driver)
	}
	if g := ioc.GPIO; g != nil {
		if g.Chip == "" {
			g.Chip = "gpiochip0"
		}
		if g.ToggleButtonLine < 0 || g.ModeButtonLine < 0 || g.StatusLine < 0 {
			errs.add("io.gpio: line offsets cannot be negative")
		}
		if g.ToggleButtonLine == g.ModeButtonLine {
			errs.addf("io.gpio: toggleButtonLine and modeButtonLine are both %d", g.ToggleButtonLine)
		}
		if g.StatusLine == g.ToggleButtonLine || g.StatusLine == g.ModeButtonLine {
			errs.addf("io.gpio: statusLine %d collides with a button line", g.StatusLine)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateModbus(m *ModbusConfig, errs *multiErr) {
	m.Type = strings.ToLower(m.Type)
	switch m.Type {
	case "tcp":
		if strings.TrimSpace(m.TCPAddr) == "" {
			errs.add("io.modbus: tcpAddr is required for type=tcp")
		}
	case "rtu":
		if strings.TrimSpace(m.Port) == "" {
			errs.add("io.modbus: port is required for type=rtu")
		}
		if m.Baud <= 0 {
			errs.add("io.modbus: baud must be > 0 for type=rtu")
		}
		if m.DataBits == 0 {
			m.DataBits = 8
		}
		if m.StopBits == 0 {
			m.StopBits = 1
		}
		if m.Parity == "" {
			m.Parity = "N"
		}
		m.Parity = strings.ToUpper(m.Parity)
		if !slices.Contains([]string{"N", "E", "O"}, m.Parity) {
			errs.add("io.modbus: parity must be one of N,E,O")
		}
	default:
		errs.add("io.modbus: type must be 'rtu' or 'tcp'")
	}

	if m.TimeoutMs <= 0 {
		m.TimeoutMs = 150
	}
	if m.SettleAfterWriteMs < 0 {
		errs.add("io.modbus: settleAfterWriteMs cannot be negative")
	}
	if m.UnitId == 0 || m.UnitId > 247 {
		errs.add("io.modbus: unitId must be 1..247")
	}
	if m.Map == nil {
		m.Map = DefaultModbusIOMap()
	}
	if m.Map.LDRRegister == m.Map.PotRegister {
		errs.addf("io.modbus.map: ldrRegister and potRegister are both %d", m.Map.LDRRegister)
	}
	if m.Map.ToggleButtonInput == m.Map.ModeButtonInput {
		errs.addf("io.modbus.map: toggleButtonInput and modeButtonInput are both %d", m.Map.ToggleButtonInput)
	}
}

/* =========================
   Comment stripping + utils
   ========================= */

var (
	lineComments  = regexp.MustCompile(`(?m)^\s*//[^\n\r]*`)
	blockComments = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// stripJSONComments removes /* */ blocks and whole-line // comments.
// Trailing // comments are left alone so broker URLs survive.
func stripJSONComments(in []byte) []byte {
	text := string(in)
	text = blockComments.ReplaceAllString(text, "")
	text = lineComments.ReplaceAllString(text, "")
	return []byte(text)
}

// small multi-error
type multiErr []string

func (m *multiErr) add(s string)            { *m = append(*m, s) }
func (m *multiErr) addf(f string, a ...any) { *m = append(*m, fmt.Sprintf(f, a...)) }
func (m multiErr) Error() string            { return "validation errors: " + strings.Join(m, "; ") }
