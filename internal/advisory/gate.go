package advisory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/ports"
)

// SummaryProvider supplies the dashboard figures the prompt is built from.
type SummaryProvider interface {
	Summary(ctx context.Context, ownerID int64, asOf core.Date) (core.DashboardSummary, error)
}

type Config struct {
	Quota     int
	MaxTokens int
	Timeout   time.Duration
	Currency  string
}

func DefaultConfig() Config {
	return Config{
		Quota:     DefaultQuota,
		MaxTokens: 200,
		Timeout:   20 * time.Second,
		Currency:  "USD",
	}
}

// Gate decides whether an owner may receive advice and runs the generator.
//
// Only successful generations are counted. An owner has at most one request
// in flight; the quota store's conditional increment guarantees the counter
// never passes the quota even across processes.
type Gate struct {
	quota     ports.QuotaStore
	txs       ports.TransactionStore
	summaries SummaryProvider
	generator Generator
	cfg       Config

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

func NewGate(quota ports.QuotaStore, txs ports.TransactionStore, summaries SummaryProvider, generator Generator, cfg Config) *Gate {
	def := DefaultConfig()
	if cfg.Quota <= 0 {
		cfg.Quota = def.Quota
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	return &Gate{
		quota:     quota,
		txs:       txs,
		summaries: summaries,
		generator: generator,
		cfg:       cfg,
		inFlight:  make(map[int64]struct{}),
	}
}

// Quota is the configured number of generations per owner.
func (g *Gate) Quota() int { return g.cfg.Quota }

// RequestAdvice runs one advice request for ownerID. Failure outcomes are
// reported in the Result; the error return is reserved for store failures.
func (g *Gate) RequestAdvice(ctx context.Context, ownerID int64) (Result, error) {
	consumed, err := g.quota.Consumed(ctx, ownerID)
	if err != nil {
		return Result{}, fmt.Errorf("load advisory usage: %w", err)
	}
	if consumed >= g.cfg.Quota {
		return g.refuse(ctx, ownerID, StatusLimitReached, MsgLimitReached, 0), nil
	}
	left := g.cfg.Quota - consumed

	if !g.reserve(ownerID) {
		return g.refuse(ctx, ownerID, StatusBusy, MsgBusy, left), nil
	}
	defer g.release(ownerID)

	ok, err := g.hasSufficientData(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return g.refuse(ctx, ownerID, StatusInsufficientData, MsgInsufficientData, left), nil
	}

	summary, err := g.summaries.Summary(ctx, ownerID, core.Date{})
	if err != nil {
		return Result{}, fmt.Errorf("build advice summary: %w", err)
	}
	prompt := BuildPrompt(summary, g.cfg.Currency)

	if g.generator == nil || !g.generator.Configured() {
		slog.WarnContext(ctx, "Advice provider API key is missing or is a placeholder")
		return g.refuse(ctx, ownerID, StatusNotConfigured, MsgNotConfigured, left), nil
	}

	genCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	advice, err := g.generator.Generate(genCtx, prompt, g.cfg.MaxTokens)
	cancel()
	if err == nil && strings.TrimSpace(advice) == "" {
		err = ErrEmptyAdvice
	}
	if err != nil {
		slog.ErrorContext(ctx, "Advice generation failed", "owner_id", ownerID, "error", err)
		return g.refuse(ctx, ownerID, StatusServiceError, failureMessage(err), left), nil
	}

	consumed, err = g.quota.Increment(ctx, ownerID, g.cfg.Quota)
	if errors.Is(err, ports.ErrQuotaExhausted) {
		return g.refuse(ctx, ownerID, StatusLimitReached, MsgLimitReached, 0), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("record advisory usage: %w", err)
	}

	res := Result{
		Status:          StatusSuccess,
		Advice:          advice,
		GenerationsLeft: max(0, g.cfg.Quota-consumed),
	}
	if rendered, err := RenderHTML(advice); err != nil {
		slog.WarnContext(ctx, "Failed to render advice as HTML", "error", err)
	} else {
		res.AdviceHTML = rendered
	}

	slog.InfoContext(ctx, "Advice generated",
		"owner_id", ownerID,
		"generations_left", res.GenerationsLeft)
	return res, nil
}

func (g *Gate) hasSufficientData(ctx context.Context, ownerID int64) (bool, error) {
	for _, t := range []core.TxType{core.Income, core.Expense} {
		txs, err := g.txs.FindByOwnerAndType(ctx, ownerID, t)
		if err != nil {
			return false, fmt.Errorf("load %s transactions: %w", t, err)
		}
		if len(txs) == 0 {
			return false, nil
		}
	}
	return true, nil
}

func (g *Gate) refuse(ctx context.Context, ownerID int64, status Status, msg string, left int) Result {
	slog.InfoContext(ctx, "Advice request refused",
		"owner_id", ownerID,
		"advice_status", string(status),
		"generations_left", left)
	return Result{Status: status, Error: msg, GenerationsLeft: left}
}

func (g *Gate) reserve(ownerID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[ownerID]; busy {
		return false
	}
	g.inFlight[ownerID] = struct{}{}
	return true
}

func (g *Gate) release(ownerID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, ownerID)
}
