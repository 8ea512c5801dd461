// Command clo-run is the CLI entrypoint for a single deal run: it
// loads an environment config the way the rest of this lineage's
// cmd/amortization does, reads a deal input bundle (§6), runs the
// deal engine period by period, and writes the output bundle plus a
// structured log summary. It replaces cmd/amortization's hardcoded
// LoanInfo literal with a file-backed input bundle, generalized to the
// full deal rather than a single loan (spec.md §1: HTTP/persistence/
// report formatting stay external collaborators; this CLI is the
// thinnest possible driver around the library).
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/meenmo-clo/engine/dealengine"
	"github.com/meenmo-clo/engine/internal/obslog"
	"github.com/meenmo-clo/engine/internal/runconfig"
	"github.com/meenmo-clo/engine/money"
)

// TrancheOutput is one tranche's slice of the output bundle (§6
// Output bundle "per-tranche results").
type TrancheOutput struct {
	TrancheID        string  `json:"tranche_id"`
	FinalBalance     float64 `json:"final_balance"`
	Deferred         float64 `json:"deferred_interest"`
	Yield            float64 `json:"yield"`
	DiscountMargin   float64 `json:"discount_margin"`
	WAL              float64 `json:"wal"`
	MacaulayDuration float64 `json:"macaulay_duration"`
	ModifiedDuration float64 `json:"modified_duration"`
}

// PeriodOutput is one period's row of the output bundle (§6 Output
// bundle "per-period tables").
type PeriodOutput struct {
	Period             int     `json:"period"`
	PaymentDate        string  `json:"payment_date"`
	Libor              float64 `json:"libor"`
	InterestProceeds   float64 `json:"interest_proceeds"`
	PrincipalProceeds  float64 `json:"principal_proceeds"`
	MaxReinvestment    float64 `json:"reinvestment_amount"`
	EOD                bool    `json:"event_of_default"`
	Liquidate          bool    `json:"liquidate_next_period"`
}

// OutputBundle is the full JSON form of §6's output bundle.
type OutputBundle struct {
	Periods  []PeriodOutput  `json:"periods"`
	Tranches []TrancheOutput `json:"tranches"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("clo-run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := runconfig.Load()
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}

	logger, err := obslog.New(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	inputFile, err := os.Open(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("open input bundle %s: %w", cfg.InputPath, err)
	}
	defer inputFile.Close()

	var bundle dealengine.InputBundle
	if err := json.NewDecoder(inputFile).Decode(&bundle); err != nil {
		return fmt.Errorf("decode input bundle %s: %w", cfg.InputPath, err)
	}

	logger.Info("loaded input bundle",
		slog.String("path", cfg.InputPath),
		slog.Int("assets", len(bundle.Assets)),
		slog.Int("tranches", len(bundle.Tranches)))

	deal, err := dealengine.Build(bundle)
	if err != nil {
		return fmt.Errorf("build deal: %w", err)
	}

	// Capture each tranche's closing balance/price before the period
	// loop mutates Tranche.Balance paying down principal, so risk
	// measures (§4.12) price against the original balance.
	type trancheClosing struct {
		balance float64
		price   float64
	}
	closing := make(map[string]trancheClosing, len(bundle.Tranches))
	for _, ti := range bundle.Tranches {
		price := ti.OriginalPrice
		if price == 0 {
			price = 1.0
		}
		closing[ti.ID] = trancheClosing{balance: ti.Balance, price: price}
	}

	periodsPerYear := float64(12 / bundle.MonthsBetweenPayments)

	var periods []PeriodOutput
	for deal.Period() <= deal.Horizon {
		result, err := deal.RunPeriod()
		if err != nil {
			return fmt.Errorf("run period: %w", err)
		}
		logger.Info("period complete",
			slog.Int("period", result.Period),
			slog.Bool("eod", result.EOD),
			slog.Bool("liquidate_next", result.LiquidateNextPeriod))

		periods = append(periods, PeriodOutput{
			Period:            result.Period,
			PaymentDate:       result.PaymentDate.Format("2006-01-02"),
			Libor:             result.Libor.Float64(),
			InterestProceeds:  result.InterestCollected.Float64(),
			PrincipalProceeds: result.PrincipalCollected.Float64(),
			MaxReinvestment:   result.MaxReinvestment.Float64(),
			EOD:               result.EOD,
			Liquidate:         result.LiquidateNextPeriod,
		})
	}

	trancheOutputs := make([]TrancheOutput, 0, len(deal.Tranches))
	for _, tr := range deal.Tranches {
		cls := closing[tr.ID]
		measures, err := deal.CalcRiskMeasures(tr.ID, money.NewAmount(cls.balance), cls.price, periodsPerYear)
		if err != nil {
			logger.Warn("risk measures failed", slog.String("tranche", tr.ID), slog.Any("error", err))
		}
		trancheOutputs = append(trancheOutputs, TrancheOutput{
			TrancheID:        tr.ID,
			FinalBalance:     tr.Balance.Float64(),
			Deferred:         tr.DeferredInterest.Float64(),
			Yield:            measures.Yield,
			DiscountMargin:   measures.DiscountMargin,
			WAL:              measures.WAL,
			MacaulayDuration: measures.MacaulayDuration,
			ModifiedDuration: measures.ModifiedDuration,
		})
	}

	out := OutputBundle{Periods: periods, Tranches: trancheOutputs}

	outFile, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("create output bundle %s: %w", cfg.OutputPath, err)
	}
	defer outFile.Close()

	encoder := json.NewEncoder(outFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("encode output bundle: %w", err)
	}

	logger.Info("deal run complete", slog.Int("periods", len(periods)), slog.String("output", cfg.OutputPath))
	return nil
}
