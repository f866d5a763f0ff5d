package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type MQTTConfig struct {
	Server   string `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
}

type Config struct {
	I2CBus        string     `json:"i2c_bus"`
	MuxAddress    int        `json:"mux_address"`
	SensorAddress int        `json:"sensor_address"`
	Channels      []int      `json:"channels"`
	CSVPath       string     `json:"csv_path"`
	SensorType    string     `json:"sensor_type"`
	MetricsListen string     `json:"metrics_listen,omitempty"`
	MQTT          MQTTConfig `json:"mqtt"`
}

func DefaultConfig() Config {
	return Config{
		I2CBus:        "1",
		MuxAddress:    0x70,
		SensorAddress: 0x39,
		Channels:      []int{0, 1, 2},
		CSVPath:       "spectral_log.csv",
		SensorType:    "real",
		MQTT: MQTTConfig{
			Server:   "tcp://localhost:1883",
			ClientID: "as7341-logger",
			Topic:    "as7341/timesync",
		},
	}
}

// LoadFromFlags loads configuration from a JSON file (optional) and flags.
// Flags override values present in the JSON file.
func LoadFromFlags() (Config, error) {
	cfgPath := flag.String("config", "", "Path to JSON config file")
	flagI2CBus := flag.String("i2c-bus", "", "I2C bus (e.g., '1' -> /dev/i2c-1)")
	flagMuxAddr := flag.String("mux-address", "", "TCA9548A address (decimal or 0x hex)")
	flagSensorAddr := flag.String("sensor-address", "", "AS7341 address (decimal or 0x hex)")
	flagChannels := flag.String("channels", "", "Comma-separated mux channels e.g. 0,1,2")
	flagCSVPath := flag.String("csv-path", "", "Path of the CSV log file")
	flagSensorType := flag.String("sensor-type", "", "sensor type: real|simulation")
	flagMetrics := flag.String("metrics-listen", "", "Prometheus listen address e.g. :9090 (empty disables)")
	flagMQTTServer := flag.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := flag.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := flag.String("mqtt-pass", "", "MQTT password")
	flagClientID := flag.String("mqtt-client-id", "", "MQTT client id")
	flagTopic := flag.String("mqtt-topic", "", "MQTT time-sync topic")

	flag.Parse()

	cfg := DefaultConfig()

	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if *flagI2CBus != "" {
		cfg.I2CBus = *flagI2CBus
	}
	if *flagMuxAddr != "" {
		v, err := parseIntOrHex(*flagMuxAddr)
		if err != nil {
			return cfg, fmt.Errorf("mux-address: %w", err)
		}
		cfg.MuxAddress = v
	}
	if *flagSensorAddr != "" {
		v, err := parseIntOrHex(*flagSensorAddr)
		if err != nil {
			return cfg, fmt.Errorf("sensor-address: %w", err)
		}
		cfg.SensorAddress = v
	}
	if *flagChannels != "" {
		chs, err := parseChannels(*flagChannels)
		if err != nil {
			return cfg, err
		}
		cfg.Channels = chs
	}
	if *flagCSVPath != "" {
		cfg.CSVPath = *flagCSVPath
	}
	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagMetrics != "" {
		cfg.MetricsListen = *flagMetrics
	}
	if *flagMQTTServer != "" {
		cfg.MQTT.Server = *flagMQTTServer
	}
	if *flagMQTTUser != "" {
		cfg.MQTT.Username = *flagMQTTUser
	}
	if *flagMQTTPass != "" {
		cfg.MQTT.Password = *flagMQTTPass
	}
	if *flagClientID != "" {
		cfg.MQTT.ClientID = *flagClientID
	}
	if *flagTopic != "" {
		cfg.MQTT.Topic = *flagTopic
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the invariants the pipeline relies on.
func (c Config) Validate() error {
	if len(c.Channels) == 0 {
		return errors.New("at least one channel must be configured")
	}
	for _, ch := range c.Channels {
		if ch < 0 || ch > 7 {
			return fmt.Errorf("channel %d out of mux range 0-7", ch)
		}
	}
	if c.CSVPath == "" {
		return errors.New("csv_path must not be empty")
	}
	switch c.SensorType {
	case "real", "simulation":
	default:
		return fmt.Errorf("unknown sensor_type %q", c.SensorType)
	}
	return nil
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	v, err := strconv.Atoi(s)
	return v, err
}

func parseChannels(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		v, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("invalid channel '%s': %w", t, err)
		}
		out = append(out, v)
	}
	return out, nil
}
