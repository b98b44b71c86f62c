package middleware

import (
	"github.com/kart-io/reviewer-x/pkg/options"
	"github.com/spf13/pflag"
)

func init() {
	Register(MiddlewareRecovery, func() Config {
		return NewRecoveryOptions()
	})
}

// 确保 RecoveryOptions 实现 Config 接口。
var _ Config = (*RecoveryOptions)(nil)

// RecoveryOptions defines recovery middleware options.
// Panic 回调属于运行时依赖，通过 RecoveryWithOptions 的第二个参数注入，
// 不放在可序列化的配置里。
type RecoveryOptions struct {
	EnableStackTrace bool `json:"enable-stack-trace" mapstructure:"enable-stack-trace"`
}

// NewRecoveryOptions creates default recovery options.
func NewRecoveryOptions() *RecoveryOptions {
	return &RecoveryOptions{
		EnableStackTrace: false,
	}
}

// AddFlags adds flags for recovery options to the specified FlagSet.
func (o *RecoveryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "middleware.recovery."

	fs.BoolVar(&o.EnableStackTrace, prefix+"enable-stack-trace", o.EnableStackTrace,
		"Enable stack trace in error responses.")
}

// Validate validates the recovery options.
func (o *RecoveryOptions) Validate() []error {
	return nil
}

// Complete completes the recovery options with defaults.
func (o *RecoveryOptions) Complete() error {
	return nil
}
