package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	LLM struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		TopP        float64 `yaml:"top_p"`
	} `yaml:"llm"`
	Hathr struct {
		ClientID         string        `yaml:"client_id"`
		ClientSecret     string        `yaml:"client_secret"`
		Scope            string        `yaml:"scope"`
		TokenURL         string        `yaml:"token_url"`
		APIURL           string        `yaml:"api_url"`
		Timeout          time.Duration `yaml:"timeout"`
		TokenEarlyExpiry time.Duration `yaml:"token_early_expiry"`
	} `yaml:"hathr"`
	Gemini struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"gemini"`
	Prompts struct {
		Path string `yaml:"path"`
	} `yaml:"prompts"`
	Policy struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"policy"`
	Run struct {
		DataDir           string   `yaml:"data_dir"`
		ResultsDir        string   `yaml:"results_dir"`
		FilesPerType      int      `yaml:"files_per_type"`
		RequestsPerSecond float64  `yaml:"requests_per_second"`
		DocumentTypes     []string `yaml:"document_types"`
		AlertAfter        int      `yaml:"alert_after"`
	} `yaml:"run"`
	Generate struct {
		Seed   int64  `yaml:"seed"`
		Bills  int    `yaml:"bills"`
		Labs   int    `yaml:"labs"`
		EOBs   int    `yaml:"eobs"`
		OutDir string `yaml:"out_dir"`
	} `yaml:"generate"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	MCP struct {
		Enabled         bool     `yaml:"enabled"`
		ProtocolVersion string   `yaml:"protocol_version"`
		AllowOrigins    []string `yaml:"allow_origins"`
	} `yaml:"mcp"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.LLM.Provider = "noop"
	cfg.LLM.Temperature = 0.2
	cfg.LLM.TopP = 1.0
	cfg.Policy.Enabled = true
	cfg.Hathr.Scope = "hathr/llm"
	cfg.Hathr.Timeout = 60 * time.Second
	cfg.Hathr.TokenEarlyExpiry = time.Hour
	cfg.Run.DataDir = "test-data"
	cfg.Run.ResultsDir = "test-results"
	cfg.Run.FilesPerType = 3
	cfg.Run.RequestsPerSecond = 1
	cfg.Run.AlertAfter = 3
	cfg.Generate.Bills = 10
	cfg.Generate.Labs = 10
	cfg.Generate.EOBs = 5
	cfg.Generate.OutDir = "test-data"
	cfg.HTTP.Addr = ":8080"
	cfg.MCP.Enabled = true
	cfg.MCP.ProtocolVersion = "2025-06-18"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads path (a missing file is not an error), applies BD_* environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every problem found, wrapped in ErrInvalid.
func (c Config) Validate() error {
	var problems []string
	switch c.LLM.Provider {
	case "noop":
	case "hathr":
		if c.Hathr.ClientID == "" {
			problems = append(problems, "missing hathr.client_id (or BD_HATHR_CLIENT_ID)")
		}
		if c.Hathr.ClientSecret == "" {
			problems = append(problems, "missing hathr.client_secret (or BD_HATHR_CLIENT_SECRET)")
		}
		if c.Hathr.TokenURL == "" {
			problems = append(problems, "missing hathr.token_url (or BD_HATHR_TOKEN_URL)")
		}
		if c.Hathr.APIURL == "" {
			problems = append(problems, "missing hathr.api_url (or BD_HATHR_API_URL)")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			problems = append(problems, "missing gemini.api_key (or BD_GEMINI_API_KEY)")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.Run.FilesPerType < 1 {
		problems = append(problems, "run.files_per_type must be at least 1")
	}
	if c.Run.RequestsPerSecond <= 0 {
		problems = append(problems, "run.requests_per_second must be positive")
	}
	if c.Generate.Bills < 0 || c.Generate.Labs < 0 || c.Generate.EOBs < 0 {
		problems = append(problems, "generate counts must not be negative")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BD_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("BD_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("BD_LLM_TEMPERATURE"); v != "" {
		cfg.LLM.Temperature = parseFloat(v, cfg.LLM.Temperature)
	}
	if v := os.Getenv("BD_LLM_TOP_P"); v != "" {
		cfg.LLM.TopP = parseFloat(v, cfg.LLM.TopP)
	}
	if v := os.Getenv("BD_HATHR_CLIENT_ID"); v != "" {
		cfg.Hathr.ClientID = v
	}
	if v := os.Getenv("BD_HATHR_CLIENT_SECRET"); v != "" {
		cfg.Hathr.ClientSecret = v
	}
	if v := os.Getenv("BD_HATHR_SCOPE"); v != "" {
		cfg.Hathr.Scope = v
	}
	if v := os.Getenv("BD_HATHR_TOKEN_URL"); v != "" {
		cfg.Hathr.TokenURL = v
	}
	if v := os.Getenv("BD_HATHR_API_URL"); v != "" {
		cfg.Hathr.APIURL = v
	}
	if v := os.Getenv("BD_HATHR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Hathr.Timeout = d
		}
	}
	if v := os.Getenv("BD_HATHR_TOKEN_EARLY_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Hathr.TokenEarlyExpiry = d
		}
	}
	if v := os.Getenv("BD_GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("BD_GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("BD_GEMINI_BASE_URL"); v != "" {
		cfg.Gemini.BaseURL = v
	}
	if v := os.Getenv("BD_PROMPTS_PATH"); v != "" {
		cfg.Prompts.Path = v
	}
	if v := os.Getenv("BD_POLICY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Policy.Enabled = b
		}
	}
	if v := os.Getenv("BD_POLICY_PATH"); v != "" {
		cfg.Policy.Path = v
	}
	if v := os.Getenv("BD_RUN_DATA_DIR"); v != "" {
		cfg.Run.DataDir = v
	}
	if v := os.Getenv("BD_RUN_RESULTS_DIR"); v != "" {
		cfg.Run.ResultsDir = v
	}
	if v := os.Getenv("BD_RUN_FILES_PER_TYPE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Run.FilesPerType = n
		}
	}
	if v := os.Getenv("BD_RUN_REQUESTS_PER_SECOND"); v != "" {
		cfg.Run.RequestsPerSecond = parseFloat(v, cfg.Run.RequestsPerSecond)
	}
	if v := os.Getenv("BD_RUN_DOCUMENT_TYPES"); v != "" {
		cfg.Run.DocumentTypes = splitCSV(v)
	}
	if v := os.Getenv("BD_RUN_ALERT_AFTER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Run.AlertAfter = n
		}
	}
	if v := os.Getenv("BD_GENERATE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Generate.Seed = n
		}
	}
	if v := os.Getenv("BD_GENERATE_BILLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generate.Bills = n
		}
	}
	if v := os.Getenv("BD_GENERATE_LABS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generate.Labs = n
		}
	}
	if v := os.Getenv("BD_GENERATE_EOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generate.EOBs = n
		}
	}
	if v := os.Getenv("BD_GENERATE_OUT_DIR"); v != "" {
		cfg.Generate.OutDir = v
	}
	if v := os.Getenv("BD_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("BD_MCP_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MCP.Enabled = b
		}
	}
	if v := os.Getenv("BD_MCP_PROTOCOL_VERSION"); v != "" {
		cfg.MCP.ProtocolVersion = v
	}
	if v := os.Getenv("BD_MCP_ALLOW_ORIGINS"); v != "" {
		cfg.MCP.AllowOrigins = splitCSV(v)
	}
	if v := os.Getenv("BD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func parseFloat(input string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}
