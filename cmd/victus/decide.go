package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/johncarlocaintic/VictusGlobal/internal/agent"
	"github.com/johncarlocaintic/VictusGlobal/internal/app"
	"github.com/johncarlocaintic/VictusGlobal/internal/decision"
	"github.com/johncarlocaintic/VictusGlobal/internal/market"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type tierView struct {
	Venue             string `yaml:"venue"`
	Bucket            string `yaml:"bucket"`
	DailyMin          string `yaml:"daily_min"`
	DailyMax          string `yaml:"daily_max"`
	MinimumCommitment string `yaml:"minimum_commitment"`
	InvestmentAmount  string `yaml:"investment_amount"`
}

type decisionView struct {
	TraceID   string           `yaml:"trace_id"`
	Slug      string           `yaml:"slug"`
	Name      string           `yaml:"name"`
	Symbol    string           `yaml:"symbol"`
	Verdict   string           `yaml:"verdict"`
	Rationale []string         `yaml:"rationale"`
	Tier      *tierView        `yaml:"tier,omitempty"`
	Message   string           `yaml:"message"`
	Snapshot  *market.Snapshot `yaml:"snapshot,omitempty"`
}

func runDecide(cmd *cobra.Command, args []string) error {
	slug := strings.TrimSpace(args[0])
	if link, ok := agent.FindListingLink(slug); ok {
		s, ok := agent.ExtractSlug(link)
		if !ok {
			return fmt.Errorf("malformed listing link %q", slug)
		}
		slug = s
	}
	cfg, _, cleanup, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signalContext()
	defer stop()

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	eval, err := a.Proposals().Evaluate(ctx, slug)
	if err != nil {
		return err
	}
	withSnap, _ := cmd.Flags().GetBool("snapshot")
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(newDecisionView(eval, withSnap))
}

func newDecisionView(eval agent.Evaluation, withSnapshot bool) decisionView {
	v := decisionView{
		TraceID:   eval.TraceID,
		Slug:      eval.Snapshot.TokenSlug,
		Name:      eval.Snapshot.TokenName,
		Symbol:    eval.Snapshot.TokenSymbol,
		Verdict:   string(eval.Decision.Verdict),
		Rationale: eval.Decision.Rationale,
		Tier:      newTierView(eval.Decision.Tier),
		Message:   eval.Message,
	}
	if withSnapshot {
		snap := eval.Snapshot
		v.Snapshot = &snap
	}
	return v
}

func newTierView(t *decision.Tier) *tierView {
	if t == nil {
		return nil
	}
	txt := t.Text()
	return &tierView{
		Venue:             string(t.Venue),
		Bucket:            t.Bucket,
		DailyMin:          txt.DailyMin,
		DailyMax:          txt.DailyMax,
		MinimumCommitment: txt.MinimumCommitment,
		InvestmentAmount:  txt.InvestmentAmount,
	}
}
