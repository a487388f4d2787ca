package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/coins"
	"github.com/johncarlocaintic/VictusGlobal/internal/decision"
	"github.com/johncarlocaintic/VictusGlobal/internal/decision/render"
	"github.com/johncarlocaintic/VictusGlobal/internal/gateway/notifier"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
	"github.com/johncarlocaintic/VictusGlobal/internal/market"
	"github.com/johncarlocaintic/VictusGlobal/internal/metrics"
	"github.com/johncarlocaintic/VictusGlobal/internal/session"
	"github.com/johncarlocaintic/VictusGlobal/internal/store/proposallog"

	"github.com/google/uuid"
)

// ErrNoListingLink is returned when a request does not carry a CoinMarketCap listing link.
var ErrNoListingLink = errors.New("not a coinmarketcap listing link")

// InboundEvent is one chat message handed over by the router.
type InboundEvent struct {
	ChatID    string
	MessageID int64
	Text      string
}

// Gate 为每个聊天做准入判定。
type Gate interface {
	Admit(chatID string, messageID int64, now time.Time) session.Admission
}

// SnapshotAssembler builds the market snapshot of one token.
type SnapshotAssembler interface {
	Assemble(ctx context.Context, slug string, id market.Identity) (market.Snapshot, error)
}

// Evaluator maps a snapshot to a verdict.
type Evaluator interface {
	Evaluate(s market.Snapshot) decision.InvestmentDecision
}

// ProposalLog persists finished evaluations.
type ProposalLog interface {
	Append(ctx context.Context, e proposallog.Entry) (int64, error)
}

// Evaluation is the outcome of one pipeline run.
type Evaluation struct {
	TraceID  string                      `json:"trace_id"`
	Snapshot market.Snapshot             `json:"snapshot"`
	Decision decision.InvestmentDecision `json:"decision"`
	Message  string                      `json:"message"`
}

// ProposalServiceParams 聚合 ProposalService 的依赖。
type ProposalServiceParams struct {
	Gate       Gate
	Resolver   coins.Resolver
	Assembler  SnapshotAssembler
	Engine     Evaluator
	Dispatcher notifier.Dispatcher
	Log        ProposalLog
	Metrics    *metrics.Metrics

	OperatorChatID string
	ForwardResults bool
	BlockSeconds   int
	Now            func() time.Time
}

// ProposalService runs the link → gate → snapshot → verdict → chat pipeline.
type ProposalService struct {
	gate       Gate
	resolver   coins.Resolver
	assembler  SnapshotAssembler
	engine     Evaluator
	dispatcher notifier.Dispatcher
	logs       ProposalLog
	metrics    *metrics.Metrics

	operatorChat string
	forward      bool
	blockSeconds int
	now          func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *logger.Component
}

func NewProposalService(p ProposalServiceParams) (*ProposalService, error) {
	if p.Gate == nil {
		return nil, fmt.Errorf("proposal service requires a gate")
	}
	if p.Assembler == nil {
		return nil, fmt.Errorf("proposal service requires a snapshot assembler")
	}
	if p.Dispatcher == nil {
		return nil, fmt.Errorf("proposal service requires a dispatcher")
	}
	engine := p.Engine
	if engine == nil {
		engine = decision.Engine{}
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	block := p.BlockSeconds
	if block <= 0 {
		block = int(session.DefaultBlock / time.Second)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ProposalService{
		gate:         p.Gate,
		resolver:     p.Resolver,
		assembler:    p.Assembler,
		engine:       engine,
		dispatcher:   p.Dispatcher,
		logs:         p.Log,
		metrics:      p.Metrics,
		operatorChat: strings.TrimSpace(p.OperatorChatID),
		forward:      p.ForwardResults,
		blockSeconds: block,
		now:          now,
		baseCtx:      ctx,
		cancel:       cancel,
		log:          logger.With("proposal"),
	}, nil
}

// HandleEvent gates one chat message and, when admitted, starts the pipeline in the
// background. It returns once the gate has decided.
func (s *ProposalService) HandleEvent(ctx context.Context, ev InboundEvent) {
	chatID := strings.TrimSpace(ev.ChatID)
	if chatID == "" {
		return
	}
	link, ok := FindListingLink(ev.Text)
	if !ok {
		s.metrics.RecordAdmission("wrong_link")
		s.dispatcher.Deliver(ctx, chatID, render.NoticeWrongLink)
		return
	}

	adm := s.gate.Admit(chatID, ev.MessageID, s.now())
	s.metrics.RecordAdmission(adm.Outcome.String())
	for _, n := range adm.Notices {
		s.dispatcher.Deliver(ctx, chatID, s.noticeText(n))
	}
	if !adm.Forward() {
		s.log.Debugf("event dropped chat=%s msg=%d outcome=%s", chatID, ev.MessageID, adm.Outcome)
		return
	}

	traceID := uuid.NewString()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPipeline(s.baseCtx, traceID, chatID, link)
	}()
}

func (s *ProposalService) noticeText(n session.Notice) string {
	switch n {
	case session.NoticeBlocked:
		return render.SpamNotice(s.blockSeconds)
	case session.NoticeUnblocked:
		return render.NoticeUnblocked
	default:
		return ""
	}
}

func (s *ProposalService) runPipeline(ctx context.Context, traceID, chatID, link string) {
	start := s.now()
	log := s.log.With("trace", traceID, "chat", chatID)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("pipeline panic: %v", r)
			s.metrics.RecordPipelineError("panic")
		}
	}()

	s.dispatcher.Deliver(ctx, chatID, render.NoticeAccepted)
	slug, ok := ExtractSlug(link)
	if !ok {
		s.metrics.RecordPipelineError("slug")
		s.dispatcher.Deliver(ctx, chatID, render.NoticeBadSlug)
		return
	}
	id := s.identify(ctx, slug)
	s.dispatcher.Deliver(ctx, chatID, render.NoticeFetching)

	eval, err := s.decide(ctx, traceID, slug, id)
	if err != nil {
		log.Warnf("snapshot failed slug=%s err=%v", slug, err)
		s.metrics.RecordPipelineError("snapshot")
		s.dispatcher.Deliver(ctx, chatID, render.NoticeUnavailable)
		return
	}
	delivered := s.dispatcher.Deliver(ctx, chatID, eval.Message)
	if s.forward && s.operatorChat != "" && s.operatorChat != chatID {
		s.dispatcher.Deliver(ctx, s.operatorChat, eval.Message)
	}
	s.record(ctx, chatID, eval, delivered)
	s.metrics.RecordPipeline(s.now().Sub(start))
	log.Infof("pipeline done slug=%s verdict=%s delivered=%t", slug, eval.Decision.Verdict, delivered)
}

// Evaluate resolves, assembles and classifies one slug without touching any chat.
func (s *ProposalService) Evaluate(ctx context.Context, slug string) (Evaluation, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return Evaluation{}, fmt.Errorf("empty slug")
	}
	return s.decide(ctx, uuid.NewString(), slug, s.identify(ctx, slug))
}

// NotifyOperator runs the pipeline for the operator chat without the per-chat gate.
func (s *ProposalService) NotifyOperator(ctx context.Context, link string) (Evaluation, error) {
	if !IsListingLink(link) {
		return Evaluation{}, ErrNoListingLink
	}
	if s.operatorChat == "" {
		return Evaluation{}, fmt.Errorf("operator chat not configured")
	}
	slug, ok := ExtractSlug(link)
	if !ok {
		return Evaluation{}, ErrNoListingLink
	}
	s.dispatcher.Deliver(ctx, s.operatorChat, render.NoticeAccepted)
	eval, err := s.decide(ctx, uuid.NewString(), slug, s.identify(ctx, slug))
	if err != nil {
		s.metrics.RecordPipelineError("snapshot")
		s.dispatcher.Deliver(ctx, s.operatorChat, render.NoticeUnavailable)
		return Evaluation{}, err
	}
	delivered := s.dispatcher.Deliver(ctx, s.operatorChat, eval.Message)
	s.record(ctx, s.operatorChat, eval, delivered)
	return eval, nil
}

func (s *ProposalService) identify(ctx context.Context, slug string) market.Identity {
	fallback := market.Identity{Name: slug, Symbol: strings.ToUpper(slug)}
	if s.resolver == nil {
		return fallback
	}
	id, err := s.resolver.Resolve(ctx, slug)
	if err != nil {
		if errors.Is(err, coins.ErrNotFound) {
			s.log.Infof("token not found on CMC, using slug slug=%s", slug)
		} else {
			s.log.Warnf("token resolve failed slug=%s err=%v", slug, err)
			s.metrics.RecordPipelineError("resolve")
		}
		return fallback
	}
	return id
}

func (s *ProposalService) decide(ctx context.Context, traceID, slug string, id market.Identity) (Evaluation, error) {
	snap, err := s.assembler.Assemble(ctx, slug, id)
	if err != nil {
		return Evaluation{}, err
	}
	d := s.engine.Evaluate(snap)
	s.metrics.RecordVerdict(string(d.Verdict))
	snapJSON, _ := json.MarshalIndent(snap, "", "  ")
	logger.LogDecisionTrace(traceID, slug, string(d.Verdict), d.Rationale, string(snapJSON))
	return Evaluation{
		TraceID:  traceID,
		Snapshot: snap,
		Decision: d,
		Message:  render.Decision(snap.TokenName, slug, d),
	}, nil
}

func (s *ProposalService) record(ctx context.Context, chatID string, eval Evaluation, delivered bool) {
	if s.logs == nil {
		return
	}
	entry := proposallog.Entry{
		TraceID:   eval.TraceID,
		ChatID:    chatID,
		Slug:      eval.Snapshot.TokenSlug,
		TokenName: eval.Snapshot.TokenName,
		Verdict:   string(eval.Decision.Verdict),
		Rationale: eval.Decision.Rationale,
		Snapshot:  eval.Snapshot,
		Delivered: delivered,
		At:        s.now(),
	}
	if t := eval.Decision.Tier; t != nil {
		entry.Investment = t.InvestmentAmount
		entry.Commitment = t.MinimumCommitment
	}
	if _, err := s.logs.Append(ctx, entry); err != nil {
		s.log.Warnf("proposal log append failed trace=%s err=%v", eval.TraceID, err)
	}
}

// Shutdown waits for in-flight pipelines. When ctx expires first the remaining
// pipelines are cancelled.
func (s *ProposalService) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
