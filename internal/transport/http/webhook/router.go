package webhook

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/johncarlocaintic/VictusGlobal/internal/agent"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
	"github.com/johncarlocaintic/VictusGlobal/internal/store/proposallog"

	"github.com/gin-gonic/gin"
)

// Pipeline is what the router hands requests to.
type Pipeline interface {
	HandleEvent(ctx context.Context, ev agent.InboundEvent)
	Evaluate(ctx context.Context, slug string) (agent.Evaluation, error)
	NotifyOperator(ctx context.Context, link string) (agent.Evaluation, error)
}

// ProposalLister reads the audit log.
type ProposalLister interface {
	List(ctx context.Context, q proposallog.Query) ([]proposallog.Record, error)
}

// Router 挂载 webhook 与查询接口。
type Router struct {
	pipeline  Pipeline
	proposals ProposalLister
}

func NewRouter(p Pipeline, proposals ProposalLister) *Router {
	return &Router{pipeline: p, proposals: proposals}
}

func (r *Router) Register(engine *gin.Engine) {
	if engine == nil {
		return
	}
	engine.POST("/webhook", r.handleUpdate)
	engine.GET("/webhook", func(c *gin.Context) {
		c.String(http.StatusOK, "Webhook endpoint is live!")
	})
	engine.POST("/notify_investment_proposal", r.handleNotify)
	engine.GET("/crypto/contracts/:slug", r.handleContract)
	engine.GET("/api/proposals", r.handleProposals)
}

// Update is the subset of a Telegram update the bot reads.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

func (r *Router) handleUpdate(c *gin.Context) {
	var upd Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}
	if upd.Message != nil && upd.Message.Chat.ID != 0 {
		r.pipeline.HandleEvent(c.Request.Context(), agent.InboundEvent{
			ChatID:    strconv.FormatInt(upd.Message.Chat.ID, 10),
			MessageID: upd.Message.MessageID,
			Text:      upd.Message.Text,
		})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type notifyRequest struct {
	URL string `json:"url"`
}

func (r *Router) handleNotify(c *gin.Context) {
	var req notifyRequest
	_ = c.ShouldBindJSON(&req)
	eval, err := r.pipeline.NotifyOperator(c.Request.Context(), strings.TrimSpace(req.URL))
	switch {
	case errors.Is(err, agent.ErrNoListingLink):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "ignored",
			"message": "URL does not match CoinMarketCap pattern.",
		})
	case err != nil:
		logger.Warnf("notify_investment_proposal failed url=%s err=%v", req.URL, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status":   "success",
			"message":  "Notification and proposal sent to Telegram.",
			"trace_id": eval.TraceID,
			"verdict":  eval.Decision.Verdict,
		})
	}
}

func (r *Router) handleContract(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	eval, err := r.pipeline.Evaluate(c.Request.Context(), slug)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, eval)
}

func (r *Router) handleProposals(c *gin.Context) {
	if r.proposals == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "proposal log disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, err := r.proposals.List(c.Request.Context(), proposallog.Query{
		Slug:    c.Query("slug"),
		Verdict: c.Query("verdict"),
		Limit:   limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": rows})
}
