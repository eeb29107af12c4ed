package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	GitHubToken string   `yaml:"github_token"`
	Repos       []string `yaml:"repos"` // "owner/name" entries

	ReportsDir   string `yaml:"reports_dir"`
	SidebarPath  string `yaml:"sidebar_path"`
	HomepagePath string `yaml:"homepage_path"`

	SidebarAnchor      string `yaml:"sidebar_anchor"`
	HomepageStartMark  string `yaml:"homepage_start_marker"`
	HomepageEndMark    string `yaml:"homepage_end_marker"`
	LatestReportLink   string `yaml:"latest_report_link_text"`

	TopIssueLimit     int `yaml:"top_issue_limit"`
	FetchDelaySeconds int `yaml:"fetch_delay_seconds"`

	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	DifyAPIKey      string `yaml:"dify_api_key"`
	DifyEndpoint    string `yaml:"dify_endpoint"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	DBPath   string `yaml:"db_path"`
	Schedule string `yaml:"schedule"`
}

func LoadConfig() Config {
	var cfg Config

	// .env first so a local dotfile can supply the credentials below.
	_ = godotenv.Load()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.GitHubToken, "GITHUB_TOKEN")
	envOverride(&cfg.ReportsDir, "REPORTS_DIR")
	envOverride(&cfg.SidebarPath, "SIDEBAR_PATH")
	envOverride(&cfg.HomepagePath, "HOMEPAGE_PATH")
	envOverride(&cfg.SidebarAnchor, "SIDEBAR_ANCHOR")
	envOverride(&cfg.HomepageStartMark, "HOMEPAGE_START_MARKER")
	envOverride(&cfg.HomepageEndMark, "HOMEPAGE_END_MARKER")
	envOverride(&cfg.LatestReportLink, "LATEST_REPORT_LINK_TEXT")
	envOverrideInt(&cfg.TopIssueLimit, "TOP_ISSUE_LIMIT")
	envOverrideInt(&cfg.FetchDelaySeconds, "FETCH_DELAY_SECONDS")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.DifyAPIKey, "DIFY_API_KEY")
	envOverride(&cfg.DifyEndpoint, "DIFY_ENDPOINT")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.Schedule, "SCHEDULE")

	if repos := os.Getenv("REPOS"); repos != "" {
		cfg.Repos = nil
		for _, repo := range strings.Split(repos, ",") {
			repo = strings.TrimSpace(repo)
			if repo != "" {
				cfg.Repos = append(cfg.Repos, repo)
			}
		}
	}

	// Defaults
	if len(cfg.Repos) == 0 {
		cfg.Repos = []string{"openclaw/openclaw"}
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = "docs/reports"
	}
	if cfg.SidebarPath == "" {
		cfg.SidebarPath = "docs/.vitepress/config.mjs"
	}
	if cfg.HomepagePath == "" {
		cfg.HomepagePath = "docs/index.md"
	}
	if cfg.SidebarAnchor == "" {
		cfg.SidebarAnchor = "text: '历史周报'"
	}
	if cfg.HomepageStartMark == "" {
		cfg.HomepageStartMark = "## 历史周报"
	}
	if cfg.HomepageEndMark == "" {
		cfg.HomepageEndMark = "## 关于本站"
	}
	if cfg.LatestReportLink == "" {
		cfg.LatestReportLink = "最新周报"
	}
	if cfg.TopIssueLimit == 0 {
		cfg.TopIssueLimit = 5
	}
	if cfg.FetchDelaySeconds == 0 {
		cfg.FetchDelaySeconds = 3
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./openclaw-weekly.db"
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 9 * * 1"
	}

	// A missing GitHub token is not fatal: every fetch degrades to zero
	// values and the document still renders.
	if cfg.GitHubToken == "" {
		log.Printf("Warning: github_token is not set, API queries will be unauthenticated or fail")
	}

	for _, repo := range cfg.Repos {
		if _, _, ok := splitRepoFullName(repo); !ok {
			log.Fatalf("invalid repos entry '%s': expected owner/name", repo)
		}
	}
	if cfg.TopIssueLimit < 1 {
		log.Fatalf("invalid top_issue_limit '%d': must be >= 1", cfg.TopIssueLimit)
	}
	if cfg.FetchDelaySeconds < 0 {
		log.Fatalf("invalid fetch_delay_seconds '%d': must be >= 0", cfg.FetchDelaySeconds)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		log.Fatalf("invalid schedule '%s': %v", cfg.Schedule, err)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func splitRepoFullName(full string) (string, string, bool) {
	parts := strings.Split(strings.TrimSpace(full), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
