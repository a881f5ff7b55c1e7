package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tokengate/internal/deployment"
	idservice "tokengate/internal/identity/service"
	"tokengate/internal/token"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/events"
	"tokengate/pkg/platform/events/publisher"
	"tokengate/pkg/platform/events/store/memory"
	"tokengate/pkg/requestcontext"
)

const outcomeOK = "ok"

// EventView is an event without its delivery metadata.
type EventView struct {
	Type       string            `json:"type"`
	Emitter    string            `json:"emitter"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type StepResult struct {
	Index    int         `json:"index"`
	Op       string      `json:"op"`
	As       string      `json:"as"`
	Outcome  string      `json:"outcome"`
	Expected string      `json:"expected"`
	Pass     bool        `json:"pass"`
	Error    string      `json:"error,omitempty"`
	Events   []EventView `json:"events"`
}

type HolderResult struct {
	Address      string `json:"address"`
	Balance      string `json:"balance"`
	Frozen       bool   `json:"frozen"`
	FrozenTokens string `json:"frozen_tokens"`
}

type TokenResult struct {
	Address     string         `json:"address"`
	Symbol      string         `json:"symbol"`
	TotalSupply string         `json:"total_supply"`
	Paused      bool           `json:"paused"`
	Holders     []HolderResult `json:"holders"`
}

type SimulationResult struct {
	Scenario string        `json:"scenario"`
	Steps    []StepResult  `json:"steps"`
	Tokens   []TokenResult `json:"tokens"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
}

// recorder collects events in delivery order.
type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) Notify(_ context.Context, evs []events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, evs...)
}

func (r *recorder) drain() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.evs
	r.evs = nil
	return out
}

func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a scenario against an in-memory deployment",
		Long: `Build the scenario's deployment in memory, run its steps in order and
print each step's outcome and emitted events, followed by the final
holder state of every token.

Exit codes:
  0 - every step behaved as expected
  1 - at least one step did not
  2 - the scenario could not be loaded or deployed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load scenario", err)
			}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if rootOpts.Verbose {
				logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
			}
			res, err := Simulate(cmd.Context(), sc, logger)
			if err != nil {
				return WrapExitError(ExitCommandError, "deploy scenario", err)
			}
			if err := writeResult(cmd.OutOrStdout(), rootOpts.Format, res); err != nil {
				return err
			}
			if res.Failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d of %d steps did not behave as expected", res.Failed, len(res.Steps)))
			}
			return nil
		},
	}
}

// Simulate deploys sc and runs its steps. Step failures are recorded in the
// result; only a deployment failure is returned as an error.
func Simulate(ctx context.Context, sc *Scenario, logger *slog.Logger) (*SimulationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rec := &recorder{}
	registryEvents := publisher.New(memory.NewInMemoryStore(), publisher.WithLogger(logger), publisher.WithListeners(rec))
	d, err := deployment.Build(ctx, &sc.Deployment, deployment.Options{
		Logger:          logger,
		TokenOptions:    []token.Option{token.WithListeners(rec)},
		RegistryOptions: []idservice.Option{idservice.WithPublisher(registryEvents)},
	})
	if err != nil {
		return nil, err
	}
	rec.drain()

	env := &simEnv{deployment: d}
	res := &SimulationResult{Scenario: sc.Name, Steps: make([]StepResult, 0, len(sc.Steps))}
	for i, st := range sc.Steps {
		sr := StepResult{Index: i + 1, Op: st.Op, As: st.As, Expected: st.expected()}
		err := runStep(ctx, env, st)
		sr.Outcome = outcome(err)
		if err != nil {
			sr.Error = err.Error()
		}
		sr.Pass = sr.Outcome == sr.Expected
		sr.Events = views(rec.drain())
		if sr.Pass {
			res.Passed++
		} else {
			res.Failed++
		}
		res.Steps = append(res.Steps, sr)
	}
	res.Tokens = finalState(ctx, d)
	return res, nil
}

func runStep(ctx context.Context, env *simEnv, st Step) error {
	caller, err := domain.ParseAddress(st.As)
	if err != nil {
		return fmt.Errorf("as: %w", err)
	}
	return operations[st.Op](requestcontext.WithCaller(ctx, caller), env, st)
}

// outcome names err by its revert reason, falling back to its code.
func outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	if reason := dErrors.ReasonOf(err); reason != "" {
		return reason
	}
	return string(dErrors.CodeOf(err))
}

func views(evs []events.Event) []EventView {
	out := make([]EventView, len(evs))
	for i, e := range evs {
		out[i] = EventView{Type: string(e.Type), Emitter: e.Emitter.Hex(), Attributes: e.Attributes}
	}
	return out
}

func finalState(ctx context.Context, d *deployment.Deployment) []TokenResult {
	var out []TokenResult
	for _, tok := range d.Directory.Tokens() {
		tr := TokenResult{
			Address:     tok.Address().Hex(),
			Symbol:      tok.Symbol(),
			TotalSupply: tok.TotalSupply(ctx).String(),
			Paused:      tok.Paused(ctx),
			Holders:     []HolderResult{},
		}
		for _, h := range tok.Holders(ctx) {
			tr.Holders = append(tr.Holders, HolderResult{
				Address:      h.Address.Hex(),
				Balance:      h.Balance.String(),
				Frozen:       h.Frozen,
				FrozenTokens: h.FrozenTokens.String(),
			})
		}
		sort.Slice(tr.Holders, func(i, j int) bool { return tr.Holders[i].Address < tr.Holders[j].Address })
		out = append(out, tr)
	}
	return out
}

func writeResult(w io.Writer, format string, res *SimulationResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "scenario: %s\n", res.Scenario)
	for _, st := range res.Steps {
		mark := "PASS"
		if !st.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "[%d] %s %s as %s: %s", st.Index, mark, st.Op, st.As, st.Outcome)
		if !st.Pass {
			fmt.Fprintf(w, " (expected %s)", st.Expected)
		}
		fmt.Fprintln(w)
		for _, e := range st.Events {
			fmt.Fprintf(w, "    %s %s%s\n", e.Type, e.Emitter, formatAttrs(e.Attributes))
		}
	}
	for _, tok := range res.Tokens {
		fmt.Fprintf(w, "token %s %s supply=%s paused=%t\n", tok.Symbol, tok.Address, tok.TotalSupply, tok.Paused)
		for _, h := range tok.Holders {
			fmt.Fprintf(w, "    %s balance=%s frozen_tokens=%s frozen=%t\n", h.Address, h.Balance, h.FrozenTokens, h.Frozen)
		}
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed\n", res.Passed, res.Failed)
	return err
}

func formatAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, attrs[k])
	}
	return b.String()
}
