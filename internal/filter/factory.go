package filter

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/faultline/internal/config"
	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/metrics"
)

// Filter type names as written in configuration files.
const (
	TypePacketizer          = "hdlc_packetizer"
	TypeDataDropper         = "data_dropper"
	TypeRateLimiter         = "rate_limiter"
	TypeDataTransposer      = "data_transposer"
	TypeKeepDropQueue       = "keep_drop_queue"
	TypeServerFailure       = "server_failure"
	TypeWindowPacketDropper = "window_packet_dropper"
	TypeEventFilter         = "event_filter"
)

// Build constructs the filter chain for one direction from its
// configuration. Filters are wired back to front so each one's send
// callback is the next filter's Process; terminal receives what the last
// filter emits. Every filter is registered with the dispatcher so it can
// observe protocol events.
func Build(direction string, cfgs []config.FilterConfig, terminal SendFunc,
	classify Classifier, queue *Queue, dispatcher *Dispatcher) (*Chain, error) {

	send := func(packet []byte) error {
		metrics.PacketsForwardedTotal.WithLabelValues(direction).Inc()
		return terminal(packet)
	}

	filters := make([]Filter, len(cfgs))
	for i := len(cfgs) - 1; i >= 0; i-- {
		fc := cfgs[i]
		name := fmt.Sprintf("%s/%s#%d", direction, fc.Type, i)

		f, err := newFilter(fc, name, send, classify, queue)
		if err != nil {
			return nil, fmt.Errorf("building filter %q: %w", name, err)
		}
		filters[i] = f
		send = f.Process
	}

	if dispatcher != nil {
		for _, f := range filters {
			dispatcher.Register(f)
		}
	}

	return &Chain{name: direction, head: send, filters: filters}, nil
}

// newFilter constructs one filter by its configured type.
func newFilter(fc config.FilterConfig, name string, send SendFunc,
	classify Classifier, queue *Queue) (Filter, error) {

	switch fc.Type {
	case TypePacketizer:
		if err := rejectParams(fc.Params); err != nil {
			return nil, err
		}
		return NewPacketizer(send, name), nil

	case TypeDataDropper:
		var cfg DataDropperConfig
		if err := decodeParams(fc.Params, &cfg); err != nil {
			return nil, err
		}
		return NewDataDropper(send, name, cfg)

	case TypeRateLimiter:
		var cfg RateLimiterConfig
		if err := decodeParams(fc.Params, &cfg); err != nil {
			return nil, err
		}
		return NewRateLimiter(send, name, cfg)

	case TypeDataTransposer:
		var cfg TransposerConfig
		if err := decodeParams(fc.Params, &cfg); err != nil {
			return nil, err
		}
		return NewDataTransposer(send, name, cfg)

	case TypeKeepDropQueue:
		var cfg KeepDropConfig
		if err := decodeParams(fc.Params, &cfg); err != nil {
			return nil, err
		}
		return NewKeepDropQueue(send, name, classify, cfg)

	case TypeServerFailure:
		var cfg ServerFailureConfig
		if err := decodeParams(fc.Params, &cfg); err != nil {
			return nil, err
		}
		return NewServerFailure(send, name, classify, cfg)

	case TypeWindowPacketDropper:
		var cfg WindowDropperConfig
		if err := decodeParams(fc.Params, &cfg); err != nil {
			return nil, err
		}
		return NewWindowPacketDropper(send, name, classify, cfg)

	case TypeEventFilter:
		if err := rejectParams(fc.Params); err != nil {
			return nil, err
		}
		return NewEventFilter(send, name, classify, queue)

	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownFilter, fc.Type)
	}
}

// decodeParams decodes the free-form parameter map into a typed filter
// config, failing on unknown keys so typos surface at startup.
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return nil
}

// rejectParams fails when a parameterless filter is given parameters.
func rejectParams(params map[string]any) error {
	if len(params) > 0 {
		return fmt.Errorf("%w: filter takes no parameters", core.ErrConfigInvalid)
	}
	return nil
}
