// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tradepost/internal/pkg/logger"
)

// Config 聚合了所有服务共享的配置。
// 来源优先级: 环境变量 > CONFIG_FILE 指向的 YAML 文件 > 默认值。
type Config struct {
	App struct {
		// 单个事件允许的最大重试次数，超过后失败转为终态
		MaxRetries int `yaml:"maxRetries"`
		// 单次履约流程的处理超时
		ProcessingTimeout time.Duration `yaml:"processingTimeout"`
	} `yaml:"app"`
	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
		} `yaml:"kafka"`
		MySQL struct {
			Addr     string `yaml:"addr"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		// 下游协作服务的基础地址
		Services struct {
			Payment   string `yaml:"payment"`
			Shipment  string `yaml:"shipment"`
			Warehouse string `yaml:"warehouse"`
		} `yaml:"services"`
	} `yaml:"infra"`
}

var currentConfig Config

// Init 加载配置。所有二进制在 main 的最开始调用一次。
func Init() {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Ctx(context.Background()).Fatal().Err(err).Str("path", path).Msg("failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logger.Ctx(context.Background()).Fatal().Err(err).Str("path", path).Msg("failed to parse config file")
		}
	}

	applyEnvOverrides(&cfg)
	currentConfig = cfg
}

// GetCurrentConfig 返回进程级配置快照。
func GetCurrentConfig() Config {
	return currentConfig
}

func defaultConfig() Config {
	var cfg Config
	cfg.App.MaxRetries = 3
	cfg.App.ProcessingTimeout = 30 * time.Second
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.MySQL.Addr = "localhost:3306"
	cfg.Infra.MySQL.User = "root"
	cfg.Infra.MySQL.Database = "tradepost"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Services.Payment = "http://localhost:8091"
	cfg.Infra.Services.Shipment = "http://localhost:8092"
	cfg.Infra.Services.Warehouse = "http://localhost:8093"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Infra.MySQL.Addr = getEnv("MYSQL_ADDR", cfg.Infra.MySQL.Addr)
	cfg.Infra.MySQL.User = getEnv("MYSQL_USER", cfg.Infra.MySQL.User)
	cfg.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Infra.MySQL.Password)
	cfg.Infra.MySQL.Database = getEnv("MYSQL_DATABASE", cfg.Infra.MySQL.Database)
	cfg.Infra.Redis.Addr = getEnv("REDIS_ADDR", cfg.Infra.Redis.Addr)
	cfg.Infra.Services.Payment = getEnv("PAYMENT_SERVICE_URL", cfg.Infra.Services.Payment)
	cfg.Infra.Services.Shipment = getEnv("SHIPMENT_SERVICE_URL", cfg.Infra.Services.Shipment)
	cfg.Infra.Services.Warehouse = getEnv("WAREHOUSE_SERVICE_URL", cfg.Infra.Services.Warehouse)
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.App.MaxRetries = n
		}
	}
}

// getEnv 从环境变量中读取配置，缺省时返回 fallback。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
