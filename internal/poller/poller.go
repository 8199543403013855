// Package poller acompanha uma ligação em andamento no provedor de voz até
// um desfecho terminal, espelhando cada estado observado na linha do lead.
package poller

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/vocalia/voicedemo/internal/entity"
	"github.com/vocalia/voicedemo/internal/infra/integration/bland"
	"github.com/vocalia/voicedemo/internal/infra/queue"
)

type Gateway interface {
	FetchCallDetails(ctx context.Context, callID string) (*entity.CallSnapshot, error)
	RequestAnalysis(ctx context.Context, callID, goal string, questions []bland.Question) (*entity.CallAnalysis, error)
}

type LeadStore interface {
	UpdateCall(ctx context.Context, leadID string, snap *entity.CallSnapshot) error
}

type ResultPublisher interface {
	PublishCallResult(ctx context.Context, payload queue.CallResultPayload) error
}

type Config struct {
	// MaxAttempts limita ITERAÇÕES de poll, não só falhas: mesmo que o
	// provedor nunca responda status terminal, o loop termina.
	MaxAttempts int
	Interval    time.Duration

	// Orçamento próprio da análise, separado do orçamento de poll: é uma
	// chamada remota mais frágil e não pode travar o desfecho completed.
	AnalysisAttempts   int
	AnalysisRetryDelay time.Duration

	AnalysisGoal      string
	AnalysisQuestions []bland.Question
}

// DefaultConfig é a política canônica: 20 iterações de 15s pro status e 3
// tentativas pra análise.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:        20,
		Interval:           15 * time.Second,
		AnalysisAttempts:   3,
		AnalysisRetryDelay: 2 * time.Second,
		AnalysisGoal:       "Understand customer satisfaction and product feedback",
		AnalysisQuestions: []bland.Question{
			{Prompt: "Who answered the call?", Shape: "human or voicemail"},
			{Prompt: "Positive feedback about the product: ", Shape: "string"},
			{Prompt: "Negative feedback about the product: ", Shape: "string"},
			{Prompt: "Customer confirmed they were satisfied", Shape: "boolean"},
		},
	}
}

// Task é o handle do acompanhamento destacado. Outcome e Err só podem ser
// lidos depois que Done fechar.
type Task struct {
	LeadID string
	CallID string

	done    chan struct{}
	outcome entity.CallStatus
	err     error
}

func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) Outcome() entity.CallStatus { return t.outcome }

func (t *Task) Err() error { return t.err }

type Poller struct {
	gateway Gateway
	leads   LeadStore
	results ResultPublisher
	log     *logrus.Entry
	cfg     Config
}

func New(gateway Gateway, leads LeadStore, results ResultPublisher, log *logrus.Entry, cfg Config) *Poller {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.AnalysisAttempts <= 0 {
		cfg.AnalysisAttempts = def.AnalysisAttempts
	}
	if cfg.AnalysisRetryDelay <= 0 {
		cfg.AnalysisRetryDelay = def.AnalysisRetryDelay
	}
	if cfg.AnalysisGoal == "" {
		cfg.AnalysisGoal = def.AnalysisGoal
	}
	if len(cfg.AnalysisQuestions) == 0 {
		cfg.AnalysisQuestions = def.AnalysisQuestions
	}

	return &Poller{
		gateway: gateway,
		leads:   leads,
		results: results,
		log:     log,
		cfg:     cfg,
	}
}

// Start dispara o acompanhamento em background e devolve o handle na hora.
// Cancelar o ctx interrompe o loop no próximo ponto de suspensão sem
// sobrescrever o último status observado.
func (p *Poller) Start(ctx context.Context, leadID, callID string) *Task {
	task := &Task{
		LeadID: leadID,
		CallID: callID,
		done:   make(chan struct{}),
	}

	go p.run(ctx, task)

	return task
}

func (p *Poller) run(ctx context.Context, task *Task) {
	defer close(task.done)

	log := p.log.WithFields(logrus.Fields{
		"lead_id": task.LeadID,
		"call_id": task.CallID,
	})

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		snap, err := p.gateway.FetchCallDetails(ctx, task.CallID)
		if err != nil {
			// Falha transitória não derruba o loop nem zera o orçamento:
			// a iteração conta e seguimos.
			log.WithError(err).WithField("attempt", attempt).Warn("poll de status da ligação falhou")
			if attempt < p.cfg.MaxAttempts && !p.wait(ctx, task, log) {
				return
			}
			continue
		}

		switch snap.Status {
		case entity.CallStatusCompleted:
			p.finishCompleted(ctx, task, snap, log)
			return

		case entity.CallStatusFailed, entity.CallStatusError:
			p.finishFailed(ctx, task, snap, log)
			return

		default:
			// queued, in-progress ou qualquer valor novo do provedor:
			// espelha o que foi visto (melhor esforço) e continua.
			if err := p.leads.UpdateCall(ctx, task.LeadID, snap); err != nil {
				log.WithError(err).Warn("falha ao gravar snapshot intermediário")
			}
			if attempt < p.cfg.MaxAttempts && !p.wait(ctx, task, log) {
				return
			}
		}
	}

	p.finishUnknown(ctx, task, log)
}

// wait dorme o intervalo entre polls. Retorna false se o ctx foi cancelado;
// nesse caso o último status persistido fica como está.
func (p *Poller) wait(ctx context.Context, task *Task, log *logrus.Entry) bool {
	select {
	case <-ctx.Done():
		log.Info("acompanhamento cancelado")
		task.err = ctx.Err()
		return false
	case <-time.After(p.cfg.Interval):
		return true
	}
}

func (p *Poller) finishCompleted(ctx context.Context, task *Task, snap *entity.CallSnapshot, log *logrus.Entry) {
	task.outcome = entity.CallStatusCompleted

	// Snapshot completo primeiro: se a análise falhar em todas as
	// tentativas, o lead já ficou com transcript, resumo e duração.
	if err := p.leads.UpdateCall(ctx, task.LeadID, snap); err != nil {
		log.WithError(err).Error("falha ao persistir snapshot completed")
		task.err = err
	}

	analysis, err := p.analyzeWithRetry(ctx, task.CallID)
	if err != nil {
		log.WithError(err).Warn("análise esgotou as tentativas; lead fica completed sem análise")
	} else {
		snap.Analysis = analysis
		if err := p.leads.UpdateCall(ctx, task.LeadID, snap); err != nil {
			log.WithError(err).Error("falha ao persistir análise")
			task.err = err
		}
	}

	p.publishResult(ctx, task, snap, log)
	log.WithField("duration_s", snap.DurationSeconds).Info("ligação concluída")
}

func (p *Poller) finishFailed(ctx context.Context, task *Task, snap *entity.CallSnapshot, log *logrus.Entry) {
	task.outcome = snap.Status

	// error_message vai verbatim do provedor; nenhuma análise é tentada.
	if err := p.leads.UpdateCall(ctx, task.LeadID, snap); err != nil {
		log.WithError(err).Error("falha ao persistir status terminal de falha")
		task.err = err
	}

	p.publishResult(ctx, task, snap, log)
	log.WithField("error_message", snap.ErrorMessage).Info("ligação terminou em falha")
}

func (p *Poller) finishUnknown(ctx context.Context, task *Task, log *logrus.Entry) {
	task.outcome = entity.CallStatusUnknown

	snap := &entity.CallSnapshot{
		CallID: task.CallID,
		Status: entity.CallStatusUnknown,
	}
	if err := p.leads.UpdateCall(ctx, task.LeadID, snap); err != nil {
		log.WithError(err).Error("falha ao persistir status unknown")
		task.err = err
	}

	p.publishResult(ctx, task, snap, log)
	log.WithField("max_attempts", p.cfg.MaxAttempts).Warn("teto de polls atingido sem status terminal")
}

func (p *Poller) analyzeWithRetry(ctx context.Context, callID string) (*entity.CallAnalysis, error) {
	var analysis *entity.CallAnalysis

	op := func() error {
		a, err := p.gateway.RequestAnalysis(ctx, callID, p.cfg.AnalysisGoal, p.cfg.AnalysisQuestions)
		if err != nil {
			return err
		}
		analysis = a
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(p.cfg.AnalysisRetryDelay),
			uint64(p.cfg.AnalysisAttempts-1),
		),
		ctx,
	)

	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return analysis, nil
}

// publishResult é melhor esforço: fila fora não pode impedir o desfecho.
func (p *Poller) publishResult(ctx context.Context, task *Task, snap *entity.CallSnapshot, log *logrus.Entry) {
	if p.results == nil {
		return
	}

	payload := queue.CallResultPayload{
		LeadID:          task.LeadID,
		CallID:          task.CallID,
		Status:          string(task.outcome),
		DurationSeconds: snap.DurationSeconds,
		Summary:         snap.Summary,
		ErrorMessage:    snap.ErrorMessage,
		AnsweredBy:      snap.AnsweredBy,
		RecordingURL:    snap.RecordingURL,
		HasAnalysis:     snap.Analysis != nil,
	}

	if err := p.results.PublishCallResult(ctx, payload); err != nil {
		log.WithError(err).Warn("falha ao publicar resultado da ligação na fila")
	}
}
