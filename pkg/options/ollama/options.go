// Package ollamaopts configures the local Ollama endpoint used for
// embeddings and chat completion.
package ollamaopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Options configures the Ollama client.
type Options struct {
	// BaseURL points at the Ollama HTTP API.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// EmbedModel generates embeddings for knowledge-base chunks and queries.
	EmbedModel string `json:"embed-model" mapstructure:"embed-model"`

	// ChatModel answers review prompts.
	ChatModel string `json:"chat-model" mapstructure:"chat-model"`

	// Timeout bounds a single API request. Local inference can be slow,
	// so the default is generous.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries caps retries of failed requests.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewOptions returns defaults for a local Ollama install.
func NewOptions() *Options {
	return &Options{
		BaseURL:    "http://localhost:11434",
		EmbedModel: "nomic-embed-text",
		ChatModel:  "deepseek-r1:7b",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// AddFlags registers the flags under the given prefix.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefix string) {
	fs.StringVar(&o.BaseURL, prefix+"base-url", o.BaseURL, "Ollama API base URL")
	fs.StringVar(&o.EmbedModel, prefix+"embed-model", o.EmbedModel, "Model for embeddings")
	fs.StringVar(&o.ChatModel, prefix+"chat-model", o.ChatModel, "Model for chat completion")
	fs.DurationVar(&o.Timeout, prefix+"timeout", o.Timeout, "Request timeout")
	fs.IntVar(&o.MaxRetries, prefix+"max-retries", o.MaxRetries, "Max retries for failed requests")
}

// Validate checks that every required field is set.
func (o *Options) Validate() error {
	switch {
	case o.BaseURL == "":
		return fmt.Errorf("ollama base-url is required")
	case o.EmbedModel == "":
		return fmt.Errorf("ollama embed-model is required")
	case o.ChatModel == "":
		return fmt.Errorf("ollama chat-model is required")
	case o.Timeout <= 0:
		return fmt.Errorf("ollama timeout must be positive")
	}
	return nil
}
