package config

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "labyrinth.cfg.json"

// GameConfig holds the marker and prefab settings
type GameConfig struct {
	TargetMarker  string
	CleanupPolicy string
	PrefabName    string
	HasBall       bool
	// SpawnPoint is nil when the config leaves it unassigned.
	SpawnPoint []float64
}

// StorageConfig selects the prefs and history backend
type StorageConfig struct {
	Type           string
	SQLitePath     string
	HistoryEnabled bool
}

// DBConfig holds postgres connection settings
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// InfluxConfig holds the round export settings
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// ServerConfig holds the engine bridge listener settings
type ServerConfig struct {
	Listen string
	Path   string
}

// SetDefaults registers every default value.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./labyrinthlogs")

	viper.SetDefault("marker.target", "MyTargetMarker")
	viper.SetDefault("marker.cleanupPolicy", "retain")

	viper.SetDefault("prefab.name", "Labyrinth")
	viper.SetDefault("prefab.hasBall", true)
	viper.SetDefault("prefab.spawnPoint", []float64{0, 0.05, 0})

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./labyrinth_prefs.db")
	viper.SetDefault("history.enabled", true)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "labyrinth")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "labyrinth")
	viper.SetDefault("influx.bucket", "rounds")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "labyrinth")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("server.listen", ":8765")
	viper.SetDefault("server.path", "/engine")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Defaults stay in
// effect when the file cannot be read.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// BindFlags binds command line overrides to their config keys.
func BindFlags(fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"log-level": "logLevel",
		"listen":    "server.listen",
		"policy":    "marker.cleanupPolicy",
		"target":    "marker.target",
	}
	for flag, key := range bindings {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetGameConfig returns the marker and prefab settings.
func GetGameConfig() (GameConfig, error) {
	sp, err := floatSlice(viper.Get("prefab.spawnPoint"))
	if err != nil {
		return GameConfig{}, fmt.Errorf("prefab.spawnPoint: %w", err)
	}
	if len(sp) != 0 && len(sp) != 3 {
		return GameConfig{}, fmt.Errorf("prefab.spawnPoint: want 3 values, got %d", len(sp))
	}
	if len(sp) == 0 {
		sp = nil
	}

	return GameConfig{
		TargetMarker:  viper.GetString("marker.target"),
		CleanupPolicy: viper.GetString("marker.cleanupPolicy"),
		PrefabName:    viper.GetString("prefab.name"),
		HasBall:       viper.GetBool("prefab.hasBall"),
		SpawnPoint:    sp,
	}, nil
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:           viper.GetString("storage.type"),
		SQLitePath:     viper.GetString("storage.sqlite.path"),
		HistoryEnabled: viper.GetBool("history.enabled"),
	}
}

// GetDBConfig returns the postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the round export settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetServerConfig returns the engine bridge listener settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Listen: viper.GetString("server.listen"),
		Path:   viper.GetString("server.path"),
	}
}

func floatSlice(v any) ([]float64, error) {
	var items []any
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return t, nil
	case []any:
		items = t
	default:
		return nil, fmt.Errorf("unable to read %T as a list of numbers", v)
	}

	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
