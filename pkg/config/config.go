package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		SignalsTopic string   `yaml:"signals_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Outcomes struct {
			Topic      string        `yaml:"topic"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"outcomes"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	MarketData struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"market_data"`
	Providers struct {
		PredictionURL string        `yaml:"prediction_url"`
		SentimentURL  string        `yaml:"sentiment_url"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"providers"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Engine EngineConfig `yaml:"engine"`
}

// EngineConfig parameterizes the decision pipeline. Every knob the engine
// reads comes from here, never from constants at call sites.
type EngineConfig struct {
	Regime struct {
		ADXTrend  float64 `yaml:"adx_trend"`
		ChopTrend float64 `yaml:"choppiness_trend_ceiling"`
		ChopRange float64 `yaml:"choppiness_range_floor"`
	} `yaml:"regime"`
	Session struct {
		OpenHours      []int         `yaml:"open_hours"`
		IBWindow       time.Duration `yaml:"initial_balance_window"`
		PostOpenWindow time.Duration `yaml:"post_open_window"`
	} `yaml:"session"`
	Strategy struct {
		TrendBase        float64 `yaml:"trend_base_confidence"`
		RangeBase        float64 `yaml:"range_base_confidence"`
		FallbackBase     float64 `yaml:"fallback_base_confidence"`
		MinVolatilityPct float64 `yaml:"min_volatility_pct"`
	} `yaml:"strategy"`
	Weights struct {
		MLConfidence     float64 `yaml:"ml_confidence"`
		TechnicalQuality float64 `yaml:"technical_quality"`
		MarketConditions float64 `yaml:"market_conditions"`
		MTFConfirmation  float64 `yaml:"mtf_confirmation"`
		RiskFactors      float64 `yaml:"risk_factors"`
	} `yaml:"weights"`
	Risk struct {
		TrendATRMult     float64 `yaml:"trend_atr_multiple"`
		RangeATRMult     float64 `yaml:"range_atr_multiple"`
		FallbackATRMult  float64 `yaml:"fallback_atr_multiple"`
		SpreadSafetyMult float64 `yaml:"spread_safety_multiple"`
		MinRR            float64 `yaml:"min_reward_ratio"`
		MaxRR            float64 `yaml:"max_reward_ratio"`
	} `yaml:"risk"`
	Calibration struct {
		GridStart  float64       `yaml:"grid_start"`
		GridEnd    float64       `yaml:"grid_end"`
		GridStep   float64       `yaml:"grid_step"`
		MinSamples int           `yaml:"min_samples"`
		Window     time.Duration `yaml:"window"`
		Interval   time.Duration `yaml:"interval"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"calibration"`
	// Symbols overrides the built-in class defaults per instrument.
	Symbols map[string]SymbolOverride `yaml:"symbols"`
}

// SymbolOverride tunes stop and grid parameters for one instrument.
type SymbolOverride struct {
	PipSize       float64 `yaml:"pip_size"`
	MinStopPips   float64 `yaml:"min_stop_pips"`
	MaxStopPips   float64 `yaml:"max_stop_pips"`
	TypicalSpread float64 `yaml:"typical_spread_pips"`
	RoundStep     float64 `yaml:"round_number_step"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_DATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.MarketData.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_SIGNALS_TOPIC"); v != "" {
		c.Kafka.SignalsTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PREDICTION_URL"); v != "" {
		c.Providers.PredictionURL = v
	}
	if v := os.Getenv("SENTIMENT_URL"); v != "" {
		c.Providers.SentimentURL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.MarketData.Symbols) == 0 {
		return fmt.Errorf("market_data.symbols cannot be empty")
	}
	if c.Kafka.SignalsTopic == "" {
		return fmt.Errorf("kafka.signals_topic is required")
	}
	if w := c.Engine.Weights; w.MLConfidence+w.TechnicalQuality+w.MarketConditions+w.MTFConfirmation+w.RiskFactors > 0 {
		sum := w.MLConfidence + w.TechnicalQuality + w.MarketConditions + w.MTFConfirmation + w.RiskFactors
		if sum < 0.999 || sum > 1.001 {
			return fmt.Errorf("engine.weights must sum to 1, got %.3f", sum)
		}
	}
	if cal := c.Engine.Calibration; cal.GridStep < 0 {
		return fmt.Errorf("engine.calibration.grid_step cannot be negative")
	}
	return nil
}
