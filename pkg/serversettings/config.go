package serversettings

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/HasinZaman/pipelined-server/pkg/encoding"
)

const (
	// envAddress overrides ServerSetting.Address when set.
	envAddress = "PIPELINED_SERVER_ADDRESS"
	// envPort overrides ServerSetting.Port when set.
	envPort = "PIPELINED_SERVER_PORT"
)

// Load reads a YAML configuration file at path into a ServerSetting,
// applying any .env overrides found in the working directory and any
// process environment overrides, then returns a reader-writer-guarded Settings
// wrapping it.
func Load(path string) (*Settings, error) {
	value, err := LoadServerSetting(path)
	if err != nil {
		return nil, err
	}
	return NewSettings(value), nil
}

// LoadServerSetting reads and validates a single ServerSetting from a YAML
// configuration file, applying environment overrides.
func LoadServerSetting(path string) (*ServerSetting, error) {
	// Load .env overrides, if present. A missing .env file is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "unable to load .env overrides")
	}

	value := &ServerSetting{}
	if err := encoding.LoadAndUnmarshalYAML(path, value); err != nil {
		return nil, errors.Wrap(err, "unable to load server configuration")
	}

	applyEnvironmentOverrides(value)

	if value.Address == "" {
		return nil, errors.New("server configuration missing address")
	}
	if value.Port == 0 {
		return nil, errors.New("server configuration missing port")
	}

	return value, nil
}

// applyEnvironmentOverrides applies PIPELINED_SERVER_ADDRESS and
// PIPELINED_SERVER_PORT on top of a loaded ServerSetting, if set.
func applyEnvironmentOverrides(value *ServerSetting) {
	if address := os.Getenv(envAddress); address != "" {
		value.Address = address
	}
	if portText := os.Getenv(envPort); portText != "" {
		if port, err := strconv.ParseUint(portText, 10, 16); err == nil {
			value.Port = uint16(port)
		}
	}
}
