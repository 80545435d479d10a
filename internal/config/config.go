package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Whisper       WhisperConfig       `yaml:"whisper" toml:"whisper" json:"whisper"`
	LLM           LLMConfig           `yaml:"llm" toml:"llm" json:"llm"`
	KnowledgeMode KnowledgeModeConfig `yaml:"knowledge_mode" toml:"knowledge_mode" json:"knowledge_mode"`
	Markdown      MarkdownConfig      `yaml:"markdown" toml:"markdown" json:"markdown"`
	Downloader    DownloaderConfig    `yaml:"downloader" toml:"downloader" json:"downloader"`
	Paths         PathsConfig         `yaml:"paths" toml:"paths" json:"paths"`
	Processing    ProcessingConfig    `yaml:"processing" toml:"processing" json:"processing"`
	History       HistoryConfig       `yaml:"history" toml:"history" json:"history"`
	Logging       LoggingConfig       `yaml:"logging" toml:"logging" json:"logging"`
}

// WhisperConfig drives the whisper.cpp binary used for ASR
type WhisperConfig struct {
	Model       string `yaml:"model" toml:"model" json:"model"`
	Device      string `yaml:"device" toml:"device" json:"device"`
	ComputeType string `yaml:"compute_type" toml:"compute_type" json:"compute_type"`
	BinaryPath  string `yaml:"binary_path" toml:"binary_path" json:"binary_path"`
	Language    string `yaml:"language" toml:"language" json:"language"`
	Threads     int    `yaml:"threads" toml:"threads" json:"threads"`
}

type LLMConfig struct {
	Enabled        bool     `yaml:"enabled" toml:"enabled" json:"enabled"`
	Provider       string   `yaml:"provider" toml:"provider" json:"provider"`
	APIKey         string   `yaml:"api_key" toml:"api_key" json:"api_key"`
	APIKeys        []string `yaml:"api_keys" toml:"api_keys" json:"api_keys"`
	BaseURL        string   `yaml:"base_url" toml:"base_url" json:"base_url"`
	Model          string   `yaml:"model" toml:"model" json:"model"`
	TimeoutSeconds int      `yaml:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds"`
	Temperature    float64  `yaml:"temperature" toml:"temperature" json:"temperature"`
	MaxTokens      int      `yaml:"max_tokens" toml:"max_tokens" json:"max_tokens"`
}

type KnowledgeModeConfig struct {
	Enabled            bool    `yaml:"enabled" toml:"enabled" json:"enabled"`
	AddSummaryAtTop    bool    `yaml:"add_summary_at_top" toml:"add_summary_at_top" json:"add_summary_at_top"`
	ShowChapterSummary bool    `yaml:"show_chapter_summary" toml:"show_chapter_summary" json:"show_chapter_summary"`
	ChapterNumbering   bool    `yaml:"chapter_numbering" toml:"chapter_numbering" json:"chapter_numbering"`
	MaxInputChars      int     `yaml:"max_input_chars" toml:"max_input_chars" json:"max_input_chars"`
	MinCoverage        float64 `yaml:"min_coverage" toml:"min_coverage" json:"min_coverage"`
}

type MarkdownConfig struct {
	IncludeMetadata     bool    `yaml:"include_metadata" toml:"include_metadata" json:"include_metadata"`
	SanitizeFilename    bool    `yaml:"sanitize_filename" toml:"sanitize_filename" json:"sanitize_filename"`
	ConvertToSimplified bool    `yaml:"convert_to_simplified" toml:"convert_to_simplified" json:"convert_to_simplified"`
	FormatParagraphs    bool    `yaml:"format_paragraphs" toml:"format_paragraphs" json:"format_paragraphs"`
	MaxGap              float64 `yaml:"max_gap" toml:"max_gap" json:"max_gap"`
	ParagraphLength     int     `yaml:"paragraph_length" toml:"paragraph_length" json:"paragraph_length"`
	ExportDOCX          bool    `yaml:"export_docx" toml:"export_docx" json:"export_docx"`
}

// DownloaderConfig drives yt-dlp and ffmpeg
type DownloaderConfig struct {
	Binary       string   `yaml:"binary" toml:"binary" json:"binary"`
	FFmpegBinary string   `yaml:"ffmpeg_binary" toml:"ffmpeg_binary" json:"ffmpeg_binary"`
	SubLangs     []string `yaml:"sub_langs" toml:"sub_langs" json:"sub_langs"`
	Cookies      string   `yaml:"cookies" toml:"cookies" json:"cookies"`
}

type PathsConfig struct {
	Output string `yaml:"output" toml:"output" json:"output"`
	Temp   string `yaml:"temp" toml:"temp" json:"temp"`
	Inbox  string `yaml:"inbox" toml:"inbox" json:"inbox"`
}

type ProcessingConfig struct {
	MaxWorkers              int     `yaml:"max_workers" toml:"max_workers" json:"max_workers"`
	DelayBetweenRequests    float64 `yaml:"delay_between_requests" toml:"delay_between_requests" json:"delay_between_requests"`
	KeepAudio               bool    `yaml:"keep_audio" toml:"keep_audio" json:"keep_audio"`
	RetrievalTimeoutSeconds int     `yaml:"retrieval_timeout_seconds" toml:"retrieval_timeout_seconds" json:"retrieval_timeout_seconds"`
}

type HistoryConfig struct {
	Path string `yaml:"path" toml:"path" json:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

// Default returns the configuration used for keys absent from the file
func Default() *Config {
	return &Config{
		Whisper: WhisperConfig{
			Model:       "models/ggml-base.bin",
			Device:      "cpu",
			ComputeType: "int8",
			BinaryPath:  "whisper-cli",
			Language:    "zh",
		},
		LLM: LLMConfig{
			Provider:    "deepseek",
			Temperature: 0.3,
		},
		KnowledgeMode: KnowledgeModeConfig{
			AddSummaryAtTop:    true,
			ShowChapterSummary: true,
			ChapterNumbering:   true,
		},
		Markdown: MarkdownConfig{
			IncludeMetadata:     true,
			SanitizeFilename:    true,
			ConvertToSimplified: true,
			FormatParagraphs:    true,
		},
		Paths: PathsConfig{
			Output: "output",
		},
		Processing: ProcessingConfig{
			MaxWorkers:           1,
			DelayBetweenRequests: 1.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var providerDefaults = map[string]struct{ baseURL, model string }{
	"deepseek": {"https://api.deepseek.com/v1", "deepseek-chat"},
	"openai":   {"https://api.openai.com/v1", "gpt-4o-mini"},
	"qwen":     {"https://dashscope.aliyuncs.com/compatible-mode/v1", "qwen-plus"},
	"gemini":   {"", "gemini-2.5-flash"},
}

// Validate rejects impossible values and fills defaults for zero values
func (c *Config) Validate() error {
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper.binary_path is required")
	}
	if c.Whisper.Model == "" {
		return fmt.Errorf("whisper.model is required")
	}
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}
	if c.Processing.MaxWorkers < 0 {
		return fmt.Errorf("processing.max_workers must not be negative")
	}
	if c.Processing.DelayBetweenRequests < 0 {
		return fmt.Errorf("processing.delay_between_requests must not be negative")
	}
	if c.Markdown.MaxGap < 0 {
		return fmt.Errorf("markdown.max_gap must not be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2]")
	}
	if c.KnowledgeMode.MinCoverage < 0 || c.KnowledgeMode.MinCoverage > 1 {
		return fmt.Errorf("knowledge_mode.min_coverage must be within [0, 1]")
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = "deepseek"
	}
	if d, ok := providerDefaults[c.LLM.Provider]; ok {
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = d.baseURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = d.model
		}
	} else if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required for provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}

	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}
	if c.Paths.Inbox == "" {
		c.Paths.Inbox = "data/inbox"
	}
	if c.Processing.MaxWorkers == 0 {
		c.Processing.MaxWorkers = 1
	}
	if c.Processing.RetrievalTimeoutSeconds == 0 {
		c.Processing.RetrievalTimeoutSeconds = 1800
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 4
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "zh"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 120
	}
	if c.KnowledgeMode.MaxInputChars == 0 {
		c.KnowledgeMode.MaxInputChars = 8000
	}
	if c.KnowledgeMode.MinCoverage == 0 {
		c.KnowledgeMode.MinCoverage = 0.6
	}
	if c.Markdown.MaxGap == 0 {
		c.Markdown.MaxGap = 1.5
	}
	if c.Markdown.ParagraphLength == 0 {
		c.Markdown.ParagraphLength = 300
	}
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = "yt-dlp"
	}
	if c.Downloader.FFmpegBinary == "" {
		c.Downloader.FFmpegBinary = "ffmpeg"
	}
	if len(c.Downloader.SubLangs) == 0 {
		c.Downloader.SubLangs = []string{"zh-Hans", "zh-CN", "zh-Hant", "zh", "ai-zh"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

// Keys returns every configured LLM API key, api_key first
func (c LLMConfig) Keys() []string {
	var keys []string
	if k := strings.TrimSpace(c.APIKey); k != "" {
		keys = append(keys, k)
	}
	for _, k := range c.APIKeys {
		if k = strings.TrimSpace(k); k != "" && k != c.APIKey {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c ProcessingConfig) RetrievalTimeout() time.Duration {
	return time.Duration(c.RetrievalTimeoutSeconds) * time.Second
}

func (c ProcessingConfig) Delay() time.Duration {
	return time.Duration(c.DelayBetweenRequests * float64(time.Second))
}
