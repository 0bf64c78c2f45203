package config

import (
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"math/big"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env     string
	Network string
	Index   string
	Debug   bool
	Reindex bool
	LogPath string

	ApiPort    string
	ApiUrl     string
	ApiRetries int
	Caller     string

	Exchange      ExchangeConfig
	Token         TokenConfig
	Registry      RegistryConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
}

type ExchangeConfig struct {
	Address    string
	Admin      string
	FeePercent uint64
}

type TokenConfig struct {
	Address  string
	Name     string
	Symbol   string
	Decimals int32
	Supply   string
}

type RegistryConfig struct {
	Address string
	Name    string
	Symbol  string
}

type AwsConfig struct {
	AccessKey string
	SecretKey string
	Token     string
	Region    string
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
	Aws              bool
}

func (c ElasticSearchConfig) Enabled() bool {
	return len(c.Hosts) != 0
}

// Init loads .env and either CONFIG_FILE or the optional exchange.yaml, then installs the global logger
// writing to <LogPath>/<name>.log.
func Init(name string) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.L().With(zap.Error(err)).Fatal("Unable to load .env")
	}

	if path, ok := os.LookupEnv("CONFIG_FILE"); ok && path != "" {
		if err := LoadFile(path); err != nil {
			zap.L().With(zap.Error(err), zap.String("file", path)).Fatal("Unable to read config file")
		}
	} else if err := loadDefaultFile(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Unable to read exchange.yaml")
	}

	cfg := Get()
	log.NewLogger(fmt.Sprintf("%s/%s.log", cfg.LogPath, name), cfg.Debug)
}

// LoadFile reads configuration values from the given file. Environment variables
// still take precedence.
func LoadFile(path string) error {
	viper.SetConfigFile(path)
	return viper.ReadInConfig()
}

func loadDefaultFile() error {
	viper.SetConfigName("exchange")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/zilliqa-nft-exchange")

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}

	return nil
}

func Get() *Config {
	return &Config{
		Env:        getString("ENV", "dev"),
		Network:    getString("NETWORK", "zilliqa"),
		Index:      getString("INDEX_NAME", "exchange"),
		Debug:      getBool("DEBUG", false),
		Reindex:    getBool("REINDEX", false),
		LogPath:    getString("LOG_PATH", "./var/log"),
		ApiPort:    getString("API_PORT", "8080"),
		ApiUrl:     getString("API_URL", "http://localhost:8080"),
		ApiRetries: getInt("API_RETRIES", 3),
		Caller:     getString("CALLER", ""),
		Exchange: ExchangeConfig{
			Address:    getString("EXCHANGE_ADDRESS", "0x00000000000000000000000000000000000e8c4a"),
			Admin:      getString("EXCHANGE_ADMIN", "0x000000000000000000000000000000000000ad31"),
			FeePercent: getUint64("EXCHANGE_FEE_PERCENT", 25),
		},
		Token: TokenConfig{
			Address:  getString("TOKEN_ADDRESS", "0x0000000000000000000000000000000000001a66"),
			Name:     getString("TOKEN_NAME", "JagguToken"),
			Symbol:   getString("TOKEN_SYMBOL", "JAG"),
			Decimals: int32(getInt("TOKEN_DECIMALS", 0)),
			Supply:   getString("TOKEN_SUPPLY", "10000000"),
		},
		Registry: RegistryConfig{
			Address: getString("REGISTRY_ADDRESS", "0x00000000000000000000000000000000000011f7"),
			Name:    getString("REGISTRY_NAME", "NFT"),
			Symbol:  getString("REGISTRY_SYMBOL", "NFT"),
		},
		Aws: AwsConfig{
			AccessKey: getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getString("AWS_SECRET_KEY_ID", ""),
			Token:     getString("AWS_SESSION_TOKEN", ""),
			Region:    getString("AWS_REGION", ""),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "./mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 100),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
			Aws:              getBool("ELASTIC_SEARCH_AWS", false),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint64(key string, defaultValue uint) uint64 {
	return uint64(getInt(key, int(defaultValue)))
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
