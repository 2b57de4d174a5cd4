package recurring

import (
	"context"
	"errors"
	"sync"
	"time"

	appErrors "Recurra/internal/errors"
	"Recurra/internal/logger"
	"Recurra/internal/pkg"

	"golang.org/x/sync/errgroup"
)

type RunResult struct {
	Date      time.Time `json:"date"`
	Generated int       `json:"generated"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
}

func (r *RunResult) add(status GenerationStatus) {
	switch status {
	case StatusSuccess:
		r.Generated++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
}

type Recorder interface {
	ObserveGeneration(status GenerationStatus)
	ObserveRun(result RunResult, duration time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveGeneration(GenerationStatus)         {}
func (noopRecorder) ObserveRun(RunResult, time.Duration, error) {}

type GeneratorOptions struct {
	Locker   Locker
	Recorder Recorder
	Workers  int
	Location *time.Location
	Now      func() time.Time
}

// Generator executa um lote de geração: busca as definições vencidas, materializa
// cada uma isoladamente, grava o livro e avança o cursor de agendamento.
// Não possui agendador próprio; quem dispara é sempre um chamador externo.
type Generator struct {
	repo     Repository
	ledger   *Ledger
	locker   Locker
	recorder Recorder
	workers  int
	location *time.Location
	now      func() time.Time
}

func NewGenerator(repo Repository, opts GeneratorOptions) *Generator {
	g := &Generator{
		repo:     repo,
		ledger:   NewLedger(repo),
		locker:   opts.Locker,
		recorder: opts.Recorder,
		workers:  opts.Workers,
		location: opts.Location,
		now:      opts.Now,
	}
	if g.locker == nil {
		g.locker = NewLocalLocker()
	}
	if g.recorder == nil {
		g.recorder = noopRecorder{}
	}
	if g.workers < 1 {
		g.workers = 1
	}
	if g.location == nil {
		g.location = time.UTC
	}
	if g.now == nil {
		g.now = time.Now
	}
	g.ledger.now = g.now
	return g
}

// Generate dispara uma execução para o dia corrente e devolve quantas gerações tiveram sucesso.
// Falhas e pulos ficam registrados no livro.
func (g *Generator) Generate(ctx context.Context, includeOverdue bool) (int, error) {
	result, err := g.Run(ctx, g.Today(), includeOverdue)
	if err != nil {
		return 0, err
	}
	return result.Generated, nil
}

func (g *Generator) Today() time.Time {
	return pkg.DateOf(g.now().In(g.location))
}

// Run processa todas as definições devidas em today. Só devolve erro quando nem a busca
// das definições é possível; falhas individuais entram na contagem de Failed.
func (g *Generator) Run(ctx context.Context, today time.Time, includeOverdue bool) (RunResult, error) {
	started := time.Now()
	today = pkg.DateOf(today)
	result := RunResult{Date: today}

	pending, err := g.repo.FindPendingGeneration(ctx, today)
	if err != nil {
		fatal := appErrors.NewFatalError(err)
		logger.Error().Err(err).Str("date", pkg.FormatDate(today)).Msg("Falha ao buscar despesas recorrentes pendentes")
		g.recorder.ObserveRun(result, time.Since(started), fatal)
		return result, fatal
	}

	logger.Info().
		Str("date", pkg.FormatDate(today)).
		Bool("include_overdue", includeOverdue).
		Int("pending", len(pending)).
		Msg("Iniciando geração de despesas recorrentes")

	var (
		mu  sync.Mutex
		grp errgroup.Group
	)
	grp.SetLimit(g.workers)

	for _, def := range pending {
		if !def.IsDueOn(today, includeOverdue) {
			continue
		}
		def := def
		grp.Go(func() error {
			statuses := g.process(ctx, def, today)
			mu.Lock()
			defer mu.Unlock()
			for _, status := range statuses {
				g.recorder.ObserveGeneration(status)
				result.add(status)
			}
			return nil
		})
	}
	_ = grp.Wait()

	logger.Info().
		Str("date", pkg.FormatDate(today)).
		Int("generated", result.Generated).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Dur("duration", time.Since(started)).
		Msg("Geração de despesas recorrentes concluída")

	g.recorder.ObserveRun(result, time.Since(started), nil)
	return result, nil
}

// process trata uma definição sob o lock. Enquanto o cursor avançado ainda estiver
// vencido (recuperação de atrasados), gera de novo na mesma seção crítica.
// Devolve nil quando a execução foi interrompida antes de tocar na definição.
func (g *Generator) process(ctx context.Context, def *RecurringExpense, today time.Time) []GenerationStatus {
	if ctx.Err() != nil {
		return nil
	}
	date := pkg.DateOf(*def.NextGenerate)

	unlock, err := g.locker.TryLock(ctx, def.Id)
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			g.skip(ctx, def, date, ReasonLockHeld)
			return []GenerationStatus{StatusSkipped}
		}
		g.fail(ctx, def, date, err)
		return []GenerationStatus{StatusFailed}
	}
	defer unlock()

	var statuses []GenerationStatus
	for {
		status := g.generateOn(ctx, def, date, today)
		statuses = append(statuses, status)

		if status == StatusFailed || !def.IsActive || def.NextGenerate == nil || ctx.Err() != nil {
			return statuses
		}
		next := pkg.DateOf(*def.NextGenerate)
		if next.After(today) || !next.After(date) {
			return statuses
		}
		date = next
	}
}

func (g *Generator) generateOn(ctx context.Context, def *RecurringExpense, date, today time.Time) GenerationStatus {
	if def.PastEnd(date) {
		if err := g.deactivate(ctx, def); err != nil {
			g.fail(ctx, def, date, appErrors.NewPersistenceError(err))
			return StatusFailed
		}
		g.skip(ctx, def, date, ReasonPastEndDate)
		return StatusSkipped
	}

	done, err := g.ledger.Succeeded(ctx, def.Id, date)
	if err != nil {
		g.fail(ctx, def, date, appErrors.NewPersistenceError(err))
		return StatusFailed
	}
	if done {
		return g.alreadyGenerated(ctx, def, date, today)
	}

	txID, err := g.repo.CreateTransaction(ctx, Materialize(def, date))
	if errors.Is(err, ErrAlreadyGenerated) {
		return g.alreadyGenerated(ctx, def, date, today)
	}
	if err != nil {
		g.fail(ctx, def, date, appErrors.NewPersistenceError(err))
		return StatusFailed
	}

	if _, err := g.ledger.RecordSuccess(ctx, def.Id, date, txID); err != nil {
		// O lançamento já existe e o back-reference dele basta para a checagem de idempotência.
		logger.Error().Err(err).
			Str("recurring_id", def.Id.String()).
			Str("generation_date", pkg.FormatDate(date)).
			Str("transaction_id", txID.String()).
			Msg("Falha ao registrar geração bem-sucedida no livro")
	}

	if err := g.advance(ctx, def, date, today); err != nil {
		logger.Error().Err(err).
			Str("recurring_id", def.Id.String()).
			Str("generation_date", pkg.FormatDate(date)).
			Msg("Lançamento gerado mas o cursor não avançou; a próxima execução o trata como já gerado")
	}

	logger.Info().
		Str("recurring_id", def.Id.String()).
		Str("generation_date", pkg.FormatDate(date)).
		Str("transaction_id", txID.String()).
		Str("status", string(StatusSuccess)).
		Msg("Despesa recorrente gerada")
	return StatusSuccess
}

// alreadyGenerated cobre uma execução anterior que gravou o lançamento mas não avançou o cursor.
func (g *Generator) alreadyGenerated(ctx context.Context, def *RecurringExpense, date, today time.Time) GenerationStatus {
	g.skip(ctx, def, date, ReasonAlreadyGenerated)
	if err := g.advance(ctx, def, date, today); err != nil {
		logger.Error().Err(err).
			Str("recurring_id", def.Id.String()).
			Str("generation_date", pkg.FormatDate(date)).
			Msg("Falha ao avançar cursor de despesa já gerada")
	}
	return StatusSkipped
}

func (g *Generator) advance(ctx context.Context, def *RecurringExpense, generated, today time.Time) error {
	next, err := NextAfter(def.FrequencyConfig, generated, today)
	if err != nil {
		return err
	}

	update := ScheduleUpdate{
		LastGenerated: pkg.DatePtr(generated),
		NextGenerate:  &next,
		IsActive:      true,
	}
	if def.PastEnd(next) {
		update.NextGenerate = nil
		update.IsActive = false
	}

	if err := g.repo.UpdateSchedule(ctx, def.Id, update); err != nil {
		return err
	}
	def.apply(update)
	return nil
}

func (g *Generator) deactivate(ctx context.Context, def *RecurringExpense) error {
	update := ScheduleUpdate{IsActive: false}
	if err := g.repo.UpdateSchedule(ctx, def.Id, update); err != nil {
		return err
	}
	def.apply(update)
	return nil
}

func (g *Generator) skip(ctx context.Context, def *RecurringExpense, date time.Time, reason string) {
	logger.Info().
		Str("recurring_id", def.Id.String()).
		Str("generation_date", pkg.FormatDate(date)).
		Str("status", string(StatusSkipped)).
		Str("reason", reason).
		Msg("Geração de despesa recorrente pulada")

	if _, err := g.ledger.RecordSkip(ctx, def.Id, date, reason); err != nil {
		logger.Error().Err(err).
			Str("recurring_id", def.Id.String()).
			Str("generation_date", pkg.FormatDate(date)).
			Msg("Falha ao registrar pulo no livro")
	}
}

func (g *Generator) fail(ctx context.Context, def *RecurringExpense, date time.Time, cause error) {
	logger.Warn().Err(cause).
		Str("recurring_id", def.Id.String()).
		Str("generation_date", pkg.FormatDate(date)).
		Str("status", string(StatusFailed)).
		Msg("Falha ao gerar despesa recorrente; será tentada novamente na próxima execução")

	if _, err := g.ledger.RecordFailure(ctx, def.Id, date, cause); err != nil {
		logger.Error().Err(err).
			Str("recurring_id", def.Id.String()).
			Str("generation_date", pkg.FormatDate(date)).
			Msg("Falha ao registrar erro de geração no livro")
	}
}
