// internal/pkg/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是 sky-server 的全部配置
type Config struct {
	App       AppConfig       `yaml:"app"`
	Log       LogConfig       `yaml:"log"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Nacos     NacosConfig     `yaml:"nacos"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type MySQLConfig struct {
	// DSN 优先于分项配置
	DSN             string   `yaml:"dsn"`
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	User            string   `yaml:"user"`
	Password        string   `yaml:"password"`
	Database        string   `yaml:"database"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	StatusTopic string   `yaml:"status_topic"`
}

type JaegerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type NacosConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addrs     string `yaml:"addrs"`
	Namespace string `yaml:"namespace"`
	Group     string `yaml:"group"`
}

type ZookeeperConfig struct {
	Servers        []string `yaml:"servers"`
	SessionTimeout Duration `yaml:"session_timeout"`
}

// SchedulerConfig 描述两个订单巡检任务
type SchedulerConfig struct {
	// LockBackend 取值 none / redis / zookeeper
	LockBackend string      `yaml:"lock_backend"`
	LockTTL     Duration    `yaml:"lock_ttl"`
	Concurrency int         `yaml:"concurrency"`
	Unpaid      SweepConfig `yaml:"unpaid"`
	Delivery    SweepConfig `yaml:"delivery"`
}

type SweepConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	// DailyAt 形如 "01:00"，设置后忽略 Interval
	DailyAt string   `yaml:"daily_at"`
	MaxAge  Duration `yaml:"max_age"`
	Reason  string   `yaml:"reason"`
	// Filter 是可选的 CEL 表达式，订单需额外满足才会被处理
	Filter string `yaml:"filter"`
}

// Duration 支持 time.ParseDuration 的格式，另外支持 "60d" 这种按天的写法
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// ParseDuration 解析带 d 后缀的天数，其余交给 time.ParseDuration
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	return d, nil
}

// Default 返回与原系统一致的默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "sky-server", Port: 8080},
		Log: LogConfig{Level: "info"},
		MySQL: MySQLConfig{
			Host:            "localhost",
			Port:            3306,
			User:            "root",
			Password:        "root",
			Database:        "sky_take_out",
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: Duration(5 * time.Minute),
		},
		Redis:     RedisConfig{Addr: "localhost:6379"},
		Kafka:     KafkaConfig{Brokers: []string{"localhost:9092"}, StatusTopic: "order-status-changed"},
		Jaeger:    JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
		Nacos:     NacosConfig{Addrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		Zookeeper: ZookeeperConfig{Servers: []string{"localhost:2181"}, SessionTimeout: Duration(10 * time.Second)},
		Scheduler: SchedulerConfig{
			LockBackend: "none",
			LockTTL:     Duration(5 * time.Minute),
			Concurrency: 8,
			Unpaid: SweepConfig{
				Enabled:  true,
				Interval: Duration(time.Minute),
				MaxAge:   Duration(15 * time.Minute),
				Reason:   "payment timeout",
			},
			Delivery: SweepConfig{
				Enabled: true,
				DailyAt: "01:00",
				MaxAge:  Duration(60 * 24 * time.Hour),
			},
		},
	}
}

// Load 读取 YAML 配置文件并叠加环境变量。path 为空或文件不存在时只使用默认值。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config yaml")
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.MySQL.DSN = getEnv("MYSQL_DSN", c.MySQL.DSN)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
	c.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", c.Jaeger.Endpoint)
	c.Nacos.Addrs = getEnv("NACOS_SERVER_ADDRS", c.Nacos.Addrs)
	c.Nacos.Namespace = getEnv("NACOS_NAMESPACE", c.Nacos.Namespace)
	c.Nacos.Group = getEnv("NACOS_GROUP", c.Nacos.Group)
	if servers := getEnv("ZK_SERVERS", ""); servers != "" {
		c.Zookeeper.Servers = strings.Split(servers, ",")
	}
	if port, err := strconv.Atoi(getEnv("HTTP_PORT", "")); err == nil {
		c.App.Port = port
	}
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Validate 检查调度配置是否自洽
func (c *Config) Validate() error {
	switch c.Scheduler.LockBackend {
	case "", "none", "redis", "zookeeper":
	default:
		return errors.Errorf("unknown scheduler.lock_backend %q", c.Scheduler.LockBackend)
	}
	for name, sweep := range map[string]SweepConfig{"unpaid": c.Scheduler.Unpaid, "delivery": c.Scheduler.Delivery} {
		if !sweep.Enabled {
			continue
		}
		if sweep.MaxAge <= 0 {
			return errors.Errorf("scheduler.%s.max_age must be positive", name)
		}
		if sweep.DailyAt == "" && sweep.Interval <= 0 {
			return errors.Errorf("scheduler.%s needs interval or daily_at", name)
		}
	}
	return nil
}

// MySQLDSN 返回 gorm mysql 驱动使用的 DSN
func (c *Config) MySQLDSN() string {
	if c.MySQL.DSN != "" {
		return c.MySQL.DSN
	}
	mc := mysql.NewConfig()
	mc.User = c.MySQL.User
	mc.Passwd = c.MySQL.Password
	mc.Net = "tcp"
	mc.Addr = c.MySQL.Host + ":" + strconv.Itoa(c.MySQL.Port)
	mc.DBName = c.MySQL.Database
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
