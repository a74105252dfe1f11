// internal/listener/listener.go
package listener

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"
)

// Candidate is a freshly observed mint address, handed to the resolution
// pipeline. Immutable after creation.
type Candidate struct {
	Address      string
	Signature    string
	DiscoveredAt time.Time
}

// Config controls candidate discovery.
type Config struct {
	RPCURL          string
	WebSocketURL    string        // empty: polling only
	ProgramID       string        // launch program to watch
	PollInterval    time.Duration // signature polling cadence
	FreshnessWindow time.Duration // ignore signatures older than this
	BonkSuffixOnly  bool          // LetsBonk vanity mints end in "bonk"
}

const (
	wsolMint      = "So11111111111111111111111111111111111111112"
	maxSeenSigs   = 16384
	sigFetchLimit = 50
	reconnectWait = 5 * time.Second
)

// Listener discovers new token mints created through the LetsBonk launch
// program. The primary path is a WebSocket logs subscription mentioning the
// program; when the socket is unavailable it falls back to polling
// getSignaturesForAddress within a short freshness window. Duplicate
// emissions are possible across reconnects and are tolerated downstream.
type Listener struct {
	cfg       Config
	programID solana.PublicKey
	rpcClient *rpc.Client
	logger    *zap.Logger
	out       chan Candidate

	mu        sync.Mutex
	seenSigs  map[solana.Signature]struct{}
	seenMints map[string]struct{}
}

func New(cfg Config, logger *zap.Logger) (*Listener, error) {
	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, err
	}

	return &Listener{
		cfg:       cfg,
		programID: programID,
		rpcClient: rpc.New(cfg.RPCURL),
		logger:    logger.Named("listener"),
		out:       make(chan Candidate, 256),
		seenSigs:  make(map[solana.Signature]struct{}),
		seenMints: make(map[string]struct{}),
	}, nil
}

// Candidates returns the discovery output channel.
func (l *Listener) Candidates() <-chan Candidate {
	return l.out
}

// Run blocks until ctx is done. The output channel is closed on return.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.out)

	if _, err := l.rpcClient.GetHealth(ctx); err != nil {
		l.logger.Warn("RPC health check failed, continuing anyway", zap.Error(err))
	}

	if l.cfg.WebSocketURL == "" {
		l.logger.Info("no websocket URL configured, polling only")
		l.pollLoop(ctx)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := l.subscribeAndListen(ctx); err != nil {
			l.logger.Warn("log subscription failed, polling until reconnect", zap.Error(err))
			// One polling pass covers the gap, then try the socket again.
			l.pollOnce(ctx)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(reconnectWait):
			}
		}
	}
}

func (l *Listener) subscribeAndListen(ctx context.Context) error {
	wsClient, err := ws.Connect(ctx, l.cfg.WebSocketURL)
	if err != nil {
		return err
	}
	defer wsClient.Close()

	sub, err := wsClient.LogsSubscribeMentions(l.programID, rpc.CommitmentConfirmed)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	l.logger.Info("subscribed to launch program logs",
		zap.String("program_id", l.programID.String()))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		result, err := sub.Recv(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		if result.Value.Err != nil {
			continue
		}
		if !hasCreateLog(result.Value.Logs) {
			continue
		}
		l.handleSignature(ctx, result.Value.Signature)
	}
}

func (l *Listener) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.pollOnce(ctx)
		}
	}
}

// pollOnce fetches recent program signatures and processes the fresh ones.
func (l *Listener) pollOnce(ctx context.Context) {
	limit := sigFetchLimit
	sigs, err := l.rpcClient.GetSignaturesForAddressWithOpts(ctx, l.programID,
		&rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: rpc.CommitmentConfirmed,
		})
	if err != nil {
		l.logger.Debug("signature poll failed", zap.Error(err))
		return
	}

	now := time.Now()
	for _, sig := range sigs {
		if sig.Err != nil {
			continue
		}
		if sig.BlockTime != nil {
			age := now.Sub(sig.BlockTime.Time())
			if age > l.cfg.FreshnessWindow {
				continue
			}
		}
		l.handleSignature(ctx, sig.Signature)
	}
}

// handleSignature fetches the transaction behind a signature and emits any
// new mint addresses it created.
func (l *Listener) handleSignature(ctx context.Context, sig solana.Signature) {
	if !l.markSignature(sig) {
		return
	}

	version := uint64(0)
	tx, err := l.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		MaxSupportedTransactionVersion: &version,
		Commitment:                     rpc.CommitmentConfirmed,
		Encoding:                       solana.EncodingBase64,
	})
	if err != nil {
		l.logger.Debug("transaction fetch failed",
			zap.String("signature", shortSig(sig)),
			zap.Error(err))
		return
	}
	if tx == nil || tx.Meta == nil {
		return
	}

	for _, balance := range tx.Meta.PostTokenBalances {
		mint := balance.Mint.String()
		if mint == wsolMint {
			continue
		}
		if l.cfg.BonkSuffixOnly && !strings.HasSuffix(strings.ToLower(mint), "bonk") {
			continue
		}
		if !l.markMint(mint) {
			continue
		}

		candidate := Candidate{
			Address:      mint,
			Signature:    sig.String(),
			DiscoveredAt: time.Now(),
		}
		l.logger.Info("new token detected",
			zap.String("token_mint", mint),
			zap.String("signature", shortSig(sig)))

		select {
		case l.out <- candidate:
		case <-ctx.Done():
			return
		}
	}
}

// markSignature records a signature, returning false if already processed.
func (l *Listener) markSignature(sig solana.Signature) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.seenSigs[sig]; seen {
		return false
	}
	// Cheap reset instead of an eviction policy; signature order does not
	// matter, only recent-duplicate suppression.
	if len(l.seenSigs) >= maxSeenSigs {
		l.seenSigs = make(map[solana.Signature]struct{})
	}
	l.seenSigs[sig] = struct{}{}
	return true
}

func (l *Listener) markMint(mint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.seenMints[mint]; seen {
		return false
	}
	if len(l.seenMints) >= maxSeenSigs {
		l.seenMints = make(map[string]struct{})
	}
	l.seenMints[mint] = struct{}{}
	return true
}

// hasCreateLog reports whether the log lines indicate a token creation, not
// a plain trade against the program.
func hasCreateLog(logs []string) bool {
	for _, line := range logs {
		if strings.Contains(line, "Instruction: Initialize") ||
			strings.Contains(line, "Instruction: Create") ||
			strings.Contains(line, "InitializeMint") {
			return true
		}
	}
	return false
}

func shortSig(sig solana.Signature) string {
	s := sig.String()
	if len(s) > 8 {
		return s[:8] + "..."
	}
	return s
}
