package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/gopipeline/internal/advisor"
	"github.com/dbsmedya/gopipeline/internal/cleaner"
	"github.com/dbsmedya/gopipeline/internal/config"
	"github.com/dbsmedya/gopipeline/internal/dataset"
	"github.com/dbsmedya/gopipeline/internal/ingest"
	"github.com/dbsmedya/gopipeline/internal/loader"
	"github.com/dbsmedya/gopipeline/internal/logger"
	"github.com/dbsmedya/gopipeline/internal/quality"
)

const qualityQuestion = `As a data quality expert, provide:
1. An overall quality assessment (0-100 scale)
2. Severity rating for each issue category (low/medium/high)
3. Recommended actions for each issue
4. Whether this data should proceed to transformation or be rejected

Consider:
- Null values < 5% = low severity
- Duplicates < 10% = medium severity
- Multiple date formats = medium severity
- Outliers > 5% = high severity`

// Ingester reads one source file into a dataset.
type Ingester interface {
	Ingest(ctx context.Context, path string) (*dataset.Dataset, *ingest.Metadata, error)
}

// Sink writes a dataset to the warehouse.
type Sink interface {
	Load(ctx context.Context, ds *dataset.Dataset) (*loader.Result, error)
}

// Orchestrator coordinates the four pipeline stages for each file and fans
// processing out across files. Every stage runs under the retry executor;
// the routing decision between quality and transform determines whether a
// file is cleaned, loaded directly, or aborted.
type Orchestrator struct {
	cfg      *config.Config
	ingester Ingester
	sink     Sink
	advisor  advisor.Client
	checker  *quality.Checker
	cleaner  *cleaner.Cleaner
	router   *Router
	executor *Executor
	logger   *logger.Logger
}

// NewOrchestrator creates an orchestrator. The advisor client is optional;
// when nil all decisions are rule-based. advisorRouting additionally gates
// whether routing decisions consult the advisor, since routing is the one
// place where an advisory override changes the data path rather than just
// annotating it.
func NewOrchestrator(cfg *config.Config, ing Ingester, sink Sink, client advisor.Client, advisorRouting bool, log *logger.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if ing == nil {
		return nil, fmt.Errorf("ingester is nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	p := cfg.Pipeline
	backoff := time.Duration(cfg.Processing.RetryBackoffSeconds * float64(time.Second))

	var routingClient advisor.Client
	if advisorRouting {
		routingClient = client
	}

	return &Orchestrator{
		cfg:      cfg,
		ingester: ing,
		sink:     sink,
		advisor:  client,
		checker:  quality.NewChecker(p.KeyColumn, p.AmountColumn, p.DateColumn, log),
		cleaner:  cleaner.New(p.KeyColumn, p.AmountColumn, p.DateColumn, log),
		router:   NewRouter(routingClient, log),
		executor: NewExecutor(client, cfg.Processing.MaxRetries, backoff, log),
		logger:   log,
	}, nil
}

// ProcessFile runs one file through ingest, quality, routing, optional
// transform and load. It never returns an error: every failure mode is
// captured as a terminal status on the outcome.
func (o *Orchestrator) ProcessFile(ctx context.Context, name string) *FileOutcome {
	start := time.Now()
	outcome := &FileOutcome{File: name}
	defer func() { outcome.Duration = time.Since(start) }()

	log := o.logger.WithFile(name)
	path := filepath.Join(o.cfg.Pipeline.InputDir, name)

	log.Infow("Pipeline started", "path", path)

	// Stage 1: ingestion
	var (
		ds *dataset.Dataset
		md *ingest.Metadata
	)
	err := o.executor.Do(ctx, StageIngest, func() error {
		var ingErr error
		ds, md, ingErr = o.ingester.Ingest(ctx, path)
		return ingErr
	})
	if err != nil {
		return o.fail(outcome, log, err)
	}

	// Stage 2: quality assessment
	var report *quality.Report
	err = o.executor.Do(ctx, StageQuality, func() error {
		report = o.checker.Check(ds)
		return nil
	})
	if err != nil {
		return o.fail(outcome, log, err)
	}

	outcome.Score = report.Score
	outcome.IssuesDetected = len(report.Issues)
	o.assessQuality(ctx, ds, report, log)

	// Stage 3: routing decision
	decision := o.router.Decide(ctx, report.Score, report.Issues)
	log.Infow("Routing decision", "decision", string(decision), "score", report.Score)

	if decision == DecisionAbort {
		outcome.Status = StatusAborted
		outcome.Reason = fmt.Sprintf("Quality score %d below threshold", report.Score)
		outcome.Issues = report.Issues
		log.Warnw("Pipeline aborted", "score", report.Score, "issues", len(report.Issues))
		return outcome
	}

	// Stage 4: transformation, only for the CLEAN band
	if decision == DecisionClean {
		var cleanReport *cleaner.Report
		err = o.executor.Do(ctx, StageTransform, func() error {
			ds, cleanReport = o.cleaner.Clean(ds)
			return nil
		})
		if err != nil {
			return o.fail(outcome, log, err)
		}
		outcome.TransformationApplied = true
		log.Infow("Transformation complete",
			"rows_in", cleanReport.RowsIn,
			"rows_out", cleanReport.RowsOut,
			"rows_removed", cleanReport.RowsRemoved,
			"fixes", cleanReport.FixesApplied,
		)
	} else {
		log.Infof("Skipping transformation (score %d)", report.Score)
	}

	// Stage 5: loading
	var res *loader.Result
	err = o.executor.Do(ctx, StageLoad, func() error {
		var loadErr error
		res, loadErr = o.sink.Load(ctx, ds)
		return loadErr
	})
	if err != nil {
		return o.fail(outcome, log, err)
	}

	outcome.Status = StatusSuccess
	outcome.RowsLoaded = res.RowsLoaded
	outcome.Destination = res.Destination
	outcome.SchemaUpdated = md.SchemaChanged
	if md.SchemaChanged {
		outcome.NewColumns = md.NewColumns
	}

	log.Infow("Pipeline succeeded",
		"rows_loaded", res.RowsLoaded,
		"destination", res.Destination,
		"transformed", outcome.TransformationApplied,
		"schema_updated", outcome.SchemaUpdated,
	)

	return outcome
}

// Run processes the given files, bounded by the configured parallelism, and
// returns a per-file and aggregate summary. Outcomes keep the input order
// regardless of completion order.
func (o *Orchestrator) Run(ctx context.Context, files []string) *RunSummary {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Files:     len(files),
		Outcomes:  make([]*FileOutcome, len(files)),
	}

	log := o.logger.WithRun(summary.RunID)
	if len(files) == 0 {
		log.Warn("No input files to process")
		return summary
	}

	parallel := o.cfg.Processing.MaxParallel
	if parallel < 1 {
		parallel = 1
	}

	log.Infow("Run started", "files", len(files), "parallel", parallel)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, name := range files {
		g.Go(func() error {
			summary.Outcomes[i] = o.ProcessFile(gctx, name)
			return nil
		})
	}
	// Workers never return errors; failures land in outcomes.
	_ = g.Wait()

	for _, oc := range summary.Outcomes {
		switch oc.Status {
		case StatusSuccess:
			summary.Succeeded++
			summary.RowsLoaded += oc.RowsLoaded
		case StatusAborted:
			summary.Aborted++
		default:
			summary.Failed++
		}
	}
	summary.Duration = time.Since(summary.StartedAt)

	log.Infow("Run finished",
		"duration", summary.Duration,
		"succeeded", summary.Succeeded,
		"aborted", summary.Aborted,
		"failed", summary.Failed,
		"rows_loaded", summary.RowsLoaded,
	)

	return summary
}

// fail marks the outcome FAILED with the stage error.
func (o *Orchestrator) fail(outcome *FileOutcome, log *logger.Logger, err error) *FileOutcome {
	outcome.Status = StatusFailed
	outcome.Error = err.Error()
	log.Errorw("Pipeline failed", "error", err)
	return outcome
}

// assessQuality attaches an advisory assessment to the quality report.
// Best-effort: the rule-based score is authoritative and any advisor score
// claim is logged for comparison only.
func (o *Orchestrator) assessQuality(ctx context.Context, ds *dataset.Dataset, report *quality.Report, log *logger.Logger) {
	if o.advisor == nil {
		return
	}

	issuesJSON, err := json.MarshalIndent(report.Issues, "", "  ")
	if err != nil {
		issuesJSON = []byte("[]")
	}

	situation := fmt.Sprintf(`Dataset overview:
- Total rows: %d
- Columns: %v

Issues detected:
%s

Rule-based quality score: %d/100`, ds.NumRows(), ds.Columns(), issuesJSON, report.Score)

	assessment, err := advisor.Reason(ctx, o.advisor, situation, qualityQuestion)
	if err != nil {
		log.Warnf("Advisor quality assessment failed: %v", err)
		return
	}

	report.Assessment = assessment
	if claimed, ok := advisor.ParseClaimedScore(assessment); ok && claimed != report.Score {
		log.Infof("Score comparison: rule-based=%d, advisor=%d (keeping rule-based)", report.Score, claimed)
	}
}
