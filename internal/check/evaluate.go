package check

import (
	"context"
	"fmt"

	"github.com/nmslite/check-foreman/internal/config"
	"github.com/nmslite/check-foreman/internal/foreman"
)

// Source is the part of the Foreman API the evaluators read.
type Source interface {
	Dashboard(ctx context.Context) (*foreman.Dashboard, error)
	SearchHosts(ctx context.Context, search string) (*foreman.HostSearch, error)
	FactValues(ctx context.Context, search string) (*foreman.FactSearch, error)
}

// Thresholds is the warning/critical pair. Warning < Critical is enforced
// when the configuration is resolved.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// Request is what an Evaluator needs from the configuration.
type Request struct {
	Argument   string
	Thresholds Thresholds
}

// NewRequest extracts the evaluator inputs from cfg.
func NewRequest(cfg config.Config) Request {
	return Request{
		Argument: cfg.Argument,
		Thresholds: Thresholds{
			Warning:  cfg.Warning,
			Critical: cfg.Critical,
		},
	}
}

// Evaluator fetches one kind of Foreman data and classifies it.
type Evaluator func(ctx context.Context, src Source, req Request) (Outcome, error)

// ForMode returns the evaluator of m.
func ForMode(m config.Mode) (Evaluator, error) {
	switch m {
	case config.ModeDashboard:
		return evaluateDashboard, nil
	case config.ModeSearch:
		return evaluateSearch, nil
	case config.ModeFact:
		return evaluateFacts, nil
	default:
		return nil, fmt.Errorf("no evaluator for command %q", m)
	}
}

func evaluateDashboard(ctx context.Context, src Source, req Request) (Outcome, error) {
	d, err := src.Dashboard(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return Dashboard(d, req.Thresholds), nil
}

func evaluateSearch(ctx context.Context, src Source, req Request) (Outcome, error) {
	s, err := src.SearchHosts(ctx, req.Argument)
	if err != nil {
		return Outcome{}, err
	}
	return Search(s, req.Thresholds), nil
}

func evaluateFacts(ctx context.Context, src Source, req Request) (Outcome, error) {
	f, err := src.FactValues(ctx, req.Argument)
	if err != nil {
		return Outcome{}, err
	}
	return Facts(f, req.Thresholds), nil
}
