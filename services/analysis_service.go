package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/sahilchouksey/pyq-analyzer/model"
	"github.com/sahilchouksey/pyq-analyzer/services/storage"
	"github.com/sahilchouksey/pyq-analyzer/utils"
	"gorm.io/gorm"
)

// ErrNoFiles is returned when an analysis is requested without documents
var ErrNoFiles = errors.New("no PDF files uploaded")

// PaperArchiver keeps a copy of each uploaded paper
type PaperArchiver interface {
	ArchivePaper(ctx context.Context, batchID string, position int, fileName string, content []byte) (string, error)
}

// AnalysisResult is the outcome of one analysis request. BatchID is uuid.Nil
// when the batch row could not be recorded.
type AnalysisResult struct {
	BatchID     uuid.UUID                `json:"batch_id"`
	Questions   []model.AnalyzedQuestion `json:"results"`
	FailedFiles []string                 `json:"failed_files,omitempty"`
	StoredCount int                      `json:"stored_count"`
}

// AnalysisService runs the extract, aggregate, enrich and persist pipeline
type AnalysisService struct {
	extractor *QuestionExtractor
	topics    *TopicAnalyzer
	answers   *AnswerGenerator
	resources *ResourceFetcher
	questions *QuestionStore
	batches   *BatchStore
	cache     AnalysisCache
	archive   PaperArchiver
	logger    *utils.Logger
}

// AnalysisOption configures optional collaborators of the service
type AnalysisOption func(*AnalysisService)

// WithAnalysisCache reuses topics and answers across requests
func WithAnalysisCache(c AnalysisCache) AnalysisOption {
	return func(s *AnalysisService) {
		s.cache = c
	}
}

// WithPaperArchive uploads every paper before analysis
func WithPaperArchive(a PaperArchiver) AnalysisOption {
	return func(s *AnalysisService) {
		s.archive = a
	}
}

// WithResourceFetcherConfig overrides retry and limit settings of the video search
func WithResourceFetcherConfig(config ResourceFetcherConfig) AnalysisOption {
	return func(s *AnalysisService) {
		s.resources = NewResourceFetcher(s.resources.searcher, config, s.logger)
	}
}

// NewAnalysisService wires the pipeline. A nil searcher disables video lookups.
func NewAnalysisService(db *gorm.DB, generator Generator, searcher VideoSearcher, logger *utils.Logger, opts ...AnalysisOption) *AnalysisService {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	s := &AnalysisService{
		extractor: NewQuestionExtractor(generator, logger),
		topics:    NewTopicAnalyzer(generator, logger),
		answers:   NewAnswerGenerator(generator, logger),
		resources: NewResourceFetcher(searcher, DefaultResourceFetcherConfig(), logger),
		questions: NewQuestionStore(db),
		batches:   NewBatchStore(db),
		logger:    logger,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Questions exposes the underlying question store
func (s *AnalysisService) Questions() *QuestionStore {
	return s.questions
}

// Batches exposes the underlying batch store
func (s *AnalysisService) Batches() *BatchStore {
	return s.batches
}

// Analyze processes docs strictly in sequence and returns the enriched
// questions sorted by importance then frequency, both descending. AI and
// video failures degrade to fallbacks; only bookkeeping failures are returned.
func (s *AnalysisService) Analyze(ctx context.Context, docs []Document) (*AnalysisResult, error) {
	if len(docs) == 0 {
		return nil, ErrNoFiles
	}

	fileNames := make([]string, len(docs))
	for i, doc := range docs {
		fileNames[i] = doc.Name
	}

	// bookkeeping is best effort; without a batch row the papers are neither
	// archived nor recorded, but the analysis still runs
	log := s.logger
	batch, err := s.batches.Start(ctx, fileNames)
	if err != nil {
		log.Error("failed to record analysis batch", "error", err)
	} else {
		log = log.With("batch_id", batch.ID.String())
	}
	log.Info("analysis started", "files", len(docs))

	outcome := BatchOutcome{}
	if s.archive != nil && batch != nil {
		outcome.ArchivePrefix = s.archivePapers(ctx, log, batch.ID.String(), docs)
	}

	extracted, failed := s.extractor.Extract(ctx, docs)
	outcome.FailedFiles = failed
	outcome.QuestionCount = len(extracted)

	aggregated := Aggregate(extracted)
	outcome.UniqueCount = len(aggregated)

	results := make([]model.AnalyzedQuestion, 0, len(aggregated))
	for _, q := range aggregated {
		if err := ctx.Err(); err != nil {
			outcome.Err = err
			break
		}

		analyzed := s.enrich(ctx, q)
		if err := s.questions.Upsert(ctx, &analyzed); err != nil {
			// keep the in-memory result; the next batch will retry persistence
			log.Error("failed to store question", "question", q.Text, "error", err)
		} else {
			outcome.StoredCount++
		}
		results = append(results, analyzed)
	}

	SortByImportance(results)

	if batch != nil {
		if err := s.batches.Finish(context.WithoutCancel(ctx), batch, outcome); err != nil {
			log.Error("failed to finish batch", "error", err)
		}
	}
	if outcome.Err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", outcome.Err)
	}

	log.Info("analysis completed",
		"questions", outcome.QuestionCount,
		"unique", outcome.UniqueCount,
		"stored", outcome.StoredCount,
		"failed_files", len(outcome.FailedFiles),
	)

	result := &AnalysisResult{
		Questions:   results,
		FailedFiles: outcome.FailedFiles,
		StoredCount: outcome.StoredCount,
	}
	if batch != nil {
		result.BatchID = batch.ID
	}
	return result, nil
}

// enrich runs topics, importance, answer and resources for one question
func (s *AnalysisService) enrich(ctx context.Context, q AggregatedQuestion) model.AnalyzedQuestion {
	topics := s.topicsFor(ctx, q)
	importance := ClassifyImportance(q.Text, len(topics))
	answer := s.answerFor(ctx, q)
	resources := s.resources.Fetch(ctx, topics)

	analyzed := model.AnalyzedQuestion{
		QuestionText:   q.Text,
		NormalizedKey:  q.NormalizedKey,
		Frequency:      q.Frequency,
		Importance:     importance,
		ImportanceRank: importance.Rank(),
		Answer:         answer,
	}
	for i, t := range topics {
		analyzed.Topics = append(analyzed.Topics, model.QuestionTopic{Position: i, Name: t.Name, Score: t.Score})
	}
	for _, r := range resources {
		analyzed.Resources = append(analyzed.Resources, model.QuestionResource{
			Type:           r.Type,
			Title:          r.Title,
			URL:            r.URL,
			RelevanceScore: r.RelevanceScore,
		})
	}
	for _, p := range q.Papers {
		analyzed.Papers = append(analyzed.Papers, model.QuestionPaper{Name: p.Name, Year: p.Year})
	}
	return analyzed
}

func (s *AnalysisService) topicsFor(ctx context.Context, q AggregatedQuestion) []Topic {
	if s.cache != nil {
		if topics, ok := s.cache.GetTopics(ctx, q.NormalizedKey); ok {
			return topics
		}
	}

	topics := s.topics.Analyze(ctx, q.Text)
	if s.cache != nil && !isFallbackTopics(topics) {
		s.cache.SetTopics(ctx, q.NormalizedKey, topics)
	}
	return topics
}

func (s *AnalysisService) answerFor(ctx context.Context, q AggregatedQuestion) string {
	if s.cache != nil {
		if answer, ok := s.cache.GetAnswer(ctx, q.NormalizedKey); ok {
			return answer
		}
	}

	answer := s.answers.Generate(ctx, q.Text)
	if s.cache != nil && answer != AnswerFallback {
		s.cache.SetAnswer(ctx, q.NormalizedKey, answer)
	}
	return answer
}

func (s *AnalysisService) archivePapers(ctx context.Context, log *utils.Logger, batchID string, docs []Document) string {
	for i, doc := range docs {
		key, err := s.archive.ArchivePaper(ctx, batchID, i+1, doc.Name, doc.Content)
		if err != nil {
			log.Warn("failed to archive paper", "file", doc.Name, "error", err)
			continue
		}
		log.Debug("paper archived", "file", doc.Name, "key", key)
	}
	return storage.BatchPrefix(batchID)
}

func isFallbackTopics(topics []Topic) bool {
	return len(topics) == 1 && topics[0].Name == FallbackTopicName
}

// SortByImportance orders questions by importance rank then frequency, both
// descending. Equal entries keep their relative order.
func SortByImportance(questions []model.AnalyzedQuestion) {
	slices.SortStableFunc(questions, func(a, b model.AnalyzedQuestion) int {
		if c := cmp.Compare(b.Importance.Rank(), a.Importance.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.Frequency, a.Frequency)
	})
}

// RefreshResources re-runs the video search for stored questions lacking
// resources. It returns how many questions gained at least one resource.
func (s *AnalysisService) RefreshResources(ctx context.Context, limit int) (checked, updated int, err error) {
	questions, err := s.questions.WithoutResources(ctx, limit)
	if err != nil {
		return 0, 0, err
	}

	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return checked, updated, err
		}
		checked++

		topics := make([]Topic, 0, len(q.Topics))
		for _, t := range q.Topics {
			topics = append(topics, Topic{Name: t.Name, Score: t.Score})
		}

		found := s.resources.Fetch(ctx, topics)
		if len(found) == 0 {
			continue
		}

		rows := make([]model.QuestionResource, 0, len(found))
		for _, r := range found {
			rows = append(rows, model.QuestionResource{Type: r.Type, Title: r.Title, URL: r.URL, RelevanceScore: r.RelevanceScore})
		}
		if err := s.questions.ReplaceResources(ctx, q.ID, rows); err != nil {
			s.logger.Error("failed to store refreshed resources", "question_id", q.ID, "error", err)
			continue
		}
		updated++
	}
	return checked, updated, nil
}
