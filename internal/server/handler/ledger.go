package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/daotrust/daotrust/internal/ledger"
	"github.com/daotrust/daotrust/internal/scoring"
	"github.com/daotrust/daotrust/internal/voting"
	"github.com/daotrust/daotrust/internal/wallet"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LedgerHandler exposes the ledger over HTTP: recording new entries,
// verifying candidates, and reading the recent timeline.
type LedgerHandler struct {
	core    *ledger.Core
	scorer  scoring.Scorer
	votes   voting.Simulator
	wallet  wallet.Connector // nil = no server-side wallet; address must come from the request
	admin   *AdminTokens     // nil = reset endpoint disabled
	window  int
	backend string
	logger  *zap.Logger
}

// NewLedgerHandler creates a LedgerHandler. window is the number of
// entries returned in record responses and the default timeline size.
func NewLedgerHandler(core *ledger.Core, scorer scoring.Scorer, votes voting.Simulator, window int, logger *zap.Logger) *LedgerHandler {
	if window <= 0 {
		window = 10
	}
	return &LedgerHandler{
		core:   core,
		scorer: scorer,
		votes:  votes,
		window: window,
		logger: logger,
	}
}

// SetWalletConnector configures server-side address discovery for
// requests that omit an address.
func (h *LedgerHandler) SetWalletConnector(w wallet.Connector) {
	h.wallet = w
}

// SetAdminTokens enables the token-guarded reset endpoint.
func (h *LedgerHandler) SetAdminTokens(a *AdminTokens) {
	h.admin = a
}

// SetBackendLabel sets the persistence backend name reported by Overview.
func (h *LedgerHandler) SetBackendLabel(name string) {
	h.backend = name
}

// Register mounts the ledger routes on the given router group.
func (h *LedgerHandler) Register(rg *gin.RouterGroup) {
	l := rg.Group("/ledger")
	{
		l.GET("", h.Overview)
		l.GET("/timeline", h.Timeline)
		l.POST("/record", h.Record)
		l.POST("/verify", h.Verify)
		if h.admin != nil {
			l.POST("/reset", RequireAdmin(h.admin), h.Reset)
		}
	}
}

// recordRequest is the producer payload for POST /ledger/record. All
// fields are optional: a missing address falls back to the wallet
// connector, and a missing score or vote result is produced by the
// mocked collaborators.
type recordRequest struct {
	Address    string             `json:"address"`
	Score      *float64           `json:"score"`
	VoteResult *ledger.VoteResult `json:"voteResult"`
}

// Record handles POST /ledger/record — runs the score and vote mocks as
// needed, appends the entry, and returns it with the recent timeline.
func (h *LedgerHandler) Record(c *gin.Context) {
	ctx := c.Request.Context()

	var req recordRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	address := req.Address
	if address == "" && h.wallet != nil {
		a, err := h.wallet.Connect(ctx)
		if err != nil {
			h.logger.Warn("wallet connect failed, recording without address", zap.Error(err))
		} else {
			address = a
		}
	}

	score := 0.0
	if req.Score != nil {
		score = *req.Score
	} else {
		report, err := h.scorer.Score(ctx, address)
		if err != nil {
			h.logger.Error("trust scoring failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "trust scoring failed"})
			return
		}
		score = report.Score
	}

	var vote ledger.VoteResult
	if req.VoteResult != nil {
		vote = *req.VoteResult
	} else {
		result, err := h.votes.Run(ctx, address, score)
		if err != nil {
			h.logger.Error("vote simulation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "vote simulation failed"})
			return
		}
		vote = *result
	}

	entry, persisted, err := h.core.Append(ctx, address, score, vote)
	if err != nil {
		h.logger.Error("ledger append rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "ledger append rejected: " + err.Error()})
		return
	}
	RecordAppend(persisted)

	c.JSON(http.StatusOK, gin.H{
		"entry":     entry,
		"timeline":  h.core.RecentWindow(h.window),
		"persisted": persisted,
	})
}

// verifyRequest is the payload for POST /ledger/verify.
type verifyRequest struct {
	Entry  *ledger.Entry   `json:"entry" binding:"required"`
	Window []*ledger.Entry `json:"window"`
}

// Verify handles POST /ledger/verify — checks a candidate entry's hash
// and chain linkage against the supplied window. Integrity failures are
// 200 responses with valid=false; only a malformed candidate is a 400.
func (h *LedgerHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := ledger.Verify(req.Entry, req.Window)
	if err != nil {
		if errors.Is(err, ledger.ErrMissingHash) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "candidate entry has no hash"})
			return
		}
		h.logger.Error("verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidate entry could not be encoded"})
		return
	}
	RecordVerification(result.Valid)

	c.JSON(http.StatusOK, result)
}

// Timeline handles GET /ledger/timeline — returns the last n committed
// entries, oldest first.
func (h *LedgerHandler) Timeline(c *gin.Context) {
	n := h.window
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		n = parsed
	}

	entries := h.core.RecentWindow(n)
	if entries == nil {
		entries = []*ledger.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Overview handles GET /ledger — reports the chain height, tip hash and
// persistence backend.
func (h *LedgerHandler) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"height":  h.core.Height(),
		"tip":     h.core.TipHash(),
		"backend": h.backend,
	})
}

// Reset handles POST /ledger/reset — discards the in-memory chain.
// Demo and test use only; the durable log is not truncated.
func (h *LedgerHandler) Reset(c *gin.Context) {
	h.core.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
