package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ConfigSource represents a source of configuration values
type ConfigSource interface {
	GetString(key string) (string, bool)
	GetInt(key string) (int, bool)
	GetFloat(key string) (float64, bool)
}

// EnvSource implements ConfigSource for environment variables
type EnvSource struct{}

func (e *EnvSource) GetString(key string) (string, bool) {
	value := os.Getenv(key)
	return value, value != ""
}

func (e *EnvSource) GetInt(key string) (int, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i, true
	}
	return 0, false
}

func (e *EnvSource) GetFloat(key string) (float64, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f, true
	}
	return 0, false
}

// FlagSource implements ConfigSource for command-line flags
type FlagSource struct {
	values map[string]interface{}
}

func NewFlagSource() *FlagSource {
	return &FlagSource{values: make(map[string]interface{})}
}

func (f *FlagSource) Set(key string, value interface{}) {
	f.values[key] = value
}

func (f *FlagSource) GetString(key string) (string, bool) {
	if value, exists := f.values[key]; exists {
		if str, ok := value.(string); ok && str != "" {
			return str, true
		}
	}
	return "", false
}

func (f *FlagSource) GetInt(key string) (int, bool) {
	if value, exists := f.values[key]; exists {
		if i, ok := value.(int); ok {
			return i, true
		}
	}
	return 0, false
}

func (f *FlagSource) GetFloat(key string) (float64, bool) {
	if value, exists := f.values[key]; exists {
		if fl, ok := value.(float64); ok {
			return fl, true
		}
	}
	return 0, false
}

// FileSource implements ConfigSource for a YAML config file, backed by viper.
// Keys are the same uppercase underscore names the environment uses; they are
// looked up lowercased (viper is case-insensitive, file authors write e.g.
// "broker_url: ws://localhost:9001/mqtt").
type FileSource struct {
	v *viper.Viper
}

// NewFileSource loads the YAML file at path. A missing file is not an error:
// the source simply resolves nothing and lower-precedence defaults apply.
func NewFileSource(path string) (*FileSource, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("monitor")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/line-monitor/")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return &FileSource{v: v}, nil
		}
		if os.IsNotExist(err) {
			return &FileSource{v: v}, nil
		}
		return nil, err
	}
	return &FileSource{v: v}, nil
}

func (f *FileSource) key(key string) string {
	return strings.ToLower(key)
}

func (f *FileSource) GetString(key string) (string, bool) {
	k := f.key(key)
	if !f.v.IsSet(k) {
		return "", false
	}
	value := f.v.GetString(k)
	return value, value != ""
}

func (f *FileSource) GetInt(key string) (int, bool) {
	k := f.key(key)
	if !f.v.IsSet(k) {
		return 0, false
	}
	return f.v.GetInt(k), true
}

func (f *FileSource) GetFloat(key string) (float64, bool) {
	k := f.key(key)
	if !f.v.IsSet(k) {
		return 0, false
	}
	return f.v.GetFloat64(k), true
}
