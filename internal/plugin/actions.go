package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/workflow"
)

var (
	// ErrNoBinding is reported when a matched label has no configured action.
	ErrNoBinding = errors.New("no action bound to label")
	// ErrActionFailed wraps an unsuccessful plugin response.
	ErrActionFailed = errors.New("plugin reported failure")
)

// KeyboardPlugin is the name of the bundled keystroke plugin.
const KeyboardPlugin = "keyboard"

// Binding names the plugin request issued for one label.
type Binding struct {
	Plugin string         `yaml:"plugin" toml:"plugin" json:"plugin"`
	Action string         `yaml:"action" toml:"action" json:"action"`
	Params map[string]any `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"`
}

// Bindings maps gesture labels to plugin requests.
type Bindings map[gesture.Label]Binding

// Press binds a label to a single key press on the keyboard plugin.
func Press(key string) Binding {
	return Binding{Plugin: KeyboardPlugin, Action: "press", Params: map[string]any{"key": key}}
}

// DefaultBindings drives a slide deck: F5 starts the show, Escape leaves it,
// the arrow keys move between slides, space toggles media and B blanks the screen.
func DefaultBindings() Bindings {
	return Bindings{
		gesture.PresentationOn:  Press("f5"),
		gesture.PresentationOff: Press("esc"),
		gesture.Next:            Press("right"),
		gesture.Previous:        Press("left"),
		gesture.Play:            Press("space"),
		gesture.Stop:            Press("space"),
		gesture.Blank:           Press("b"),
	}
}

// Labels returns the bound labels in vocabulary order.
func (b Bindings) Labels() []gesture.Label {
	labels := make([]gesture.Label, 0, len(b))
	for l := range b {
		labels = append(labels, l)
	}
	order := make(map[gesture.Label]int, len(gesture.Labels))
	for i, l := range gesture.Labels {
		order[l] = i
	}
	sort.Slice(labels, func(i, j int) bool { return order[labels[i]] < order[labels[j]] })
	return labels
}

// ActionExecutor performs the side effect of a matched workflow step by
// running the bound plugin. Failures are logged and reported to the
// observer but never returned: an action that fails does not fail the run.
type ActionExecutor struct {
	manager  *Manager
	runner   Runner
	bindings Bindings
	logger   hclog.Logger
	observe  func(label gesture.Label, err error)
}

var _ workflow.ActionExecutor = (*ActionExecutor)(nil)

// NewActionExecutor binds labels to plugins resolved through manager.
func NewActionExecutor(manager *Manager, runner Runner, bindings Bindings, logger hclog.Logger) *ActionExecutor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ActionExecutor{
		manager:  manager,
		runner:   runner,
		bindings: bindings,
		logger:   logger.Named("actions"),
	}
}

// OnResult registers fn to receive the outcome of every Execute call.
func (a *ActionExecutor) OnResult(fn func(label gesture.Label, err error)) {
	a.observe = fn
}

// Execute runs the action bound to label.
func (a *ActionExecutor) Execute(label gesture.Label) {
	err := a.run(context.Background(), label)
	switch {
	case errors.Is(err, ErrNoBinding):
		a.logger.Debug("no action bound", "label", label)
	case err != nil:
		a.logger.Warn("action failed", "label", label, "error", err)
	default:
		a.logger.Debug("action executed", "label", label)
	}
	if a.observe != nil {
		a.observe(label, err)
	}
}

func (a *ActionExecutor) run(ctx context.Context, label gesture.Label) error {
	binding, ok := a.bindings[label]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoBinding, label)
	}

	plugin, err := a.manager.Get(binding.Plugin)
	if err != nil {
		return err
	}
	if !plugin.Manifest.Supports(binding.Action) {
		return fmt.Errorf("plugin %s does not support action %q", plugin.Manifest.Name, binding.Action)
	}

	req := &Request{Action: binding.Action, Label: label.String()}
	if len(binding.Params) > 0 {
		params, err := json.Marshal(binding.Params)
		if err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		req.Params = params
	}

	resp, err := a.runner.Execute(ctx, plugin, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrActionFailed, resp.Error)
	}
	return nil
}
