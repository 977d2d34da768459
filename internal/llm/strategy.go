package llm

import "time"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is the provider-neutral shape a strategy hands to a transport.
// Zero values mean "do not send this parameter".
type Request struct {
	Model       string
	Messages    []Message
	JSONMode    bool
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration
	// Minimal asks the transport to send nothing beyond what the provider requires.
	Minimal bool
}

// Strategy builds one variant of a request from the base request.
type Strategy struct {
	Name  string
	Build func(base Request) Request
}

const (
	StrategyJSONMode        = "json_mode"
	StrategyWithTemperature = "temperature_no_json"
	StrategyMinimal         = "minimal"
)

// DefaultStrategies returns the fallback chain: structured output without a
// sampling temperature, then temperature without structured output, then the
// bare model, messages and timeout.
func DefaultStrategies(temperature float64) []Strategy {
	return []Strategy{
		{
			Name: StrategyJSONMode,
			Build: func(base Request) Request {
				return Request{
					Model:     base.Model,
					Messages:  base.Messages,
					JSONMode:  true,
					MaxTokens: base.MaxTokens,
					Timeout:   base.Timeout,
				}
			},
		},
		{
			Name: StrategyWithTemperature,
			Build: func(base Request) Request {
				t := temperature
				return Request{
					Model:       base.Model,
					Messages:    base.Messages,
					Temperature: &t,
					MaxTokens:   base.MaxTokens,
					Timeout:     base.Timeout,
				}
			},
		},
		{
			Name: StrategyMinimal,
			Build: func(base Request) Request {
				return Request{
					Model:    base.Model,
					Messages: base.Messages,
					Timeout:  base.Timeout,
					Minimal:  true,
				}
			},
		},
	}
}
