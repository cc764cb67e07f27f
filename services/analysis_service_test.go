package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/sahilchouksey/pyq-analyzer/database/testdb"
	"github.com/sahilchouksey/pyq-analyzer/model"
	"github.com/sahilchouksey/pyq-analyzer/services/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalysisService(t *testing.T, gen *fakeGenerator, searcher VideoSearcher, opts ...AnalysisOption) *AnalysisService {
	t.Helper()
	db := testdb.New(t).GetDB()
	opts = append(opts, WithResourceFetcherConfig(fastFetcherConfig()))
	return NewAnalysisService(db, gen, searcher, nil, opts...)
}

func TestAnalyzeRejectsNoFiles(t *testing.T) {
	svc := newTestAnalysisService(t, &fakeGenerator{}, nil)
	_, err := svc.Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	gen := &fakeGenerator{documents: map[string]string{
		"paper-1": "Questions:\n- What is a binary search tree?\n- Explain the working of Dijkstra's shortest path algorithm with an example.",
	}}
	searcher := &fakeSearcher{videos: []youtube.Video{{ID: "v1", Title: "Data Structures crash course"}}}
	svc := newTestAnalysisService(t, gen, searcher)

	result, err := svc.Analyze(context.Background(), []Document{{Name: "dsa-2023.pdf", Content: []byte("paper-1")}})
	require.NoError(t, err)

	require.LessOrEqual(t, len(result.Questions), 2)
	require.NotEmpty(t, result.Questions)
	for _, q := range result.Questions {
		assert.NotZero(t, q.ID)
		assert.NotEmpty(t, q.Answer)
		assert.GreaterOrEqual(t, len(q.Topics), 1)
		assert.LessOrEqual(t, len(q.Topics), 3)
		assert.True(t, q.Importance.Valid(), "label %q", q.Importance)
		require.Len(t, q.Papers, 1)
		assert.Equal(t, "2023", q.Papers[0].Year)
		require.Len(t, q.Resources, 1)
		assert.Equal(t, "https://youtube.com/watch?v=v1", q.Resources[0].URL)
	}
	assertSortedByImportance(t, result.Questions)

	batch, err := svc.Batches().Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, result.BatchID, batch[0].ID)
	assert.Equal(t, model.AnalysisBatchCompleted, batch[0].Status)
	assert.Equal(t, 2, batch[0].QuestionCount)
	assert.Equal(t, 2, batch[0].StoredCount)
	assert.NotNil(t, batch[0].CompletedAt)
}

func TestAnalyzeDegradesOnUpstreamFailures(t *testing.T) {
	gen := &fakeGenerator{
		documents: map[string]string{"ok": "Questions:\n- Define a critical section."},
		topics:    func(string) (string, error) { return "", errUpstream },
		answers:   func(string) (string, error) { return "", errUpstream },
	}
	searcher := &fakeSearcher{errs: []error{errUpstream, errUpstream, errUpstream}}
	svc := newTestAnalysisService(t, gen, searcher)

	result, err := svc.Analyze(context.Background(), []Document{
		{Name: "broken.pdf", Content: []byte("unknown")},
		{Name: "ok.pdf", Content: []byte("ok")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"broken.pdf"}, result.FailedFiles)
	require.Len(t, result.Questions, 1)
	q := result.Questions[0]
	assert.Equal(t, AnswerFallback, q.Answer)
	require.Len(t, q.Topics, 1)
	assert.Equal(t, FallbackTopicName, q.Topics[0].Name)
	assert.Empty(t, q.Resources)
	assert.Equal(t, 3, searcher.callCount())

	batches, err := svc.Batches().Recent(context.Background(), 1)
	require.NoError(t, err)
	var failed []string
	require.NoError(t, json.Unmarshal(batches[0].FailedFiles, &failed))
	assert.Equal(t, []string{"broken.pdf"}, failed)
}

func TestAnalyzeNoQuestionsReturnsEmptyList(t *testing.T) {
	gen := &fakeGenerator{documentErr: errUpstream}
	svc := newTestAnalysisService(t, gen, nil)

	result, err := svc.Analyze(context.Background(), []Document{{Name: "a.pdf", Content: []byte("x")}})
	require.NoError(t, err)
	assert.NotNil(t, result.Questions)
	assert.Empty(t, result.Questions)
	assert.Equal(t, 0, gen.topicCalls)
}

func TestAnalyzeAggregatesAcrossPapers(t *testing.T) {
	gen := &fakeGenerator{documents: map[string]string{
		"p1": "Questions:\n- What is a semaphore?\n- Define deadlock.",
		"p2": "Questions:\n- what is a semaphore?",
	}}
	svc := newTestAnalysisService(t, gen, nil)

	result, err := svc.Analyze(context.Background(), []Document{
		{Name: "os-2020.pdf", Content: []byte("p1")},
		{Name: "os-2021.pdf", Content: []byte("p2")},
	})
	require.NoError(t, err)

	require.Len(t, result.Questions, 2)
	// one topic and answer call per unique question
	assert.Equal(t, 2, gen.topicCalls)
	assert.Equal(t, 2, gen.answerCalls)

	var semaphore *model.AnalyzedQuestion
	for i := range result.Questions {
		if result.Questions[i].NormalizedKey == "what is a semaphore?" {
			semaphore = &result.Questions[i]
		}
	}
	require.NotNil(t, semaphore)
	assert.Equal(t, 2, semaphore.Frequency)
	assert.Len(t, semaphore.Papers, 2)
}

func TestAnalyzeUsesCacheAndArchive(t *testing.T) {
	gen := &fakeGenerator{documents: map[string]string{"p": "Questions:\n- What is a semaphore?"}}
	cache := newMemoryCache()
	archive := &fakeArchive{}
	svc := newTestAnalysisService(t, gen, nil, WithAnalysisCache(cache), WithPaperArchive(archive))
	docs := []Document{{Name: "os.pdf", Content: []byte("p")}}

	first, err := svc.Analyze(context.Background(), docs)
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.topicCalls)
	assert.Equal(t, 1, gen.answerCalls)
	assert.Contains(t, cache.answers, "what is a semaphore?")
	require.Len(t, archive.keys, 2)
	assert.Equal(t, "papers/"+first.BatchID.String()+"/1-os.pdf", archive.keys[0])
}

func TestAnalyzeDoesNotCacheFallbacks(t *testing.T) {
	gen := &fakeGenerator{
		documents: map[string]string{"p": "Questions:\n- What is a semaphore?"},
		topics:    func(string) (string, error) { return "", errUpstream },
		answers:   func(string) (string, error) { return "", errUpstream },
	}
	cache := newMemoryCache()
	svc := newTestAnalysisService(t, gen, nil, WithAnalysisCache(cache))

	_, err := svc.Analyze(context.Background(), []Document{{Name: "os.pdf", Content: []byte("p")}})
	require.NoError(t, err)
	assert.Empty(t, cache.topics)
	assert.Empty(t, cache.answers)
}

func TestSortByImportance(t *testing.T) {
	questions := []model.AnalyzedQuestion{
		{QuestionText: "a", Importance: model.ImportanceLow, Frequency: 5},
		{QuestionText: "b", Importance: model.ImportanceHigh, Frequency: 1},
		{QuestionText: "c", Importance: model.ImportanceModerate, Frequency: 2},
		{QuestionText: "d", Importance: model.ImportanceHigh, Frequency: 3},
		{QuestionText: "e", Importance: model.ImportanceModerate, Frequency: 2},
	}

	SortByImportance(questions)

	var order []string
	for _, q := range questions {
		order = append(order, q.QuestionText)
	}
	assert.Equal(t, []string{"d", "b", "c", "e", "a"}, order)
	assertSortedByImportance(t, questions)
}

func TestRefreshResources(t *testing.T) {
	gen := &fakeGenerator{documents: map[string]string{"p": "Questions:\n- What is a semaphore?"}}
	searcher := &fakeSearcher{errs: []error{errUpstream, errUpstream, errUpstream}}
	svc := newTestAnalysisService(t, gen, searcher)

	_, err := svc.Analyze(context.Background(), []Document{{Name: "os.pdf", Content: []byte("p")}})
	require.NoError(t, err)

	searcher.videos = []youtube.Video{{ID: "s1", Title: "Algorithms for semaphores"}}
	checked, updated, err := svc.RefreshResources(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 1, checked)
	assert.Equal(t, 1, updated)

	list, err := svc.Questions().List(context.Background(), QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Resources, 1)
	assert.Equal(t, "https://youtube.com/watch?v=s1", list[0].Resources[0].URL)
}

func assertSortedByImportance(t *testing.T, questions []model.AnalyzedQuestion) {
	t.Helper()
	for i := 1; i < len(questions); i++ {
		a, b := questions[i-1], questions[i]
		assert.GreaterOrEqual(t, a.Importance.Rank(), b.Importance.Rank())
		if a.Importance == b.Importance {
			assert.GreaterOrEqual(t, a.Frequency, b.Frequency)
		}
	}
}

func TestAnalyzeWithoutBatchTable(t *testing.T) {
	db := testdb.New(t).GetDB()
	require.NoError(t, db.Migrator().DropTable(&model.AnalysisBatch{}))

	gen := &fakeGenerator{documents: map[string]string{
		"paper": "Questions:\n- What is a deadlock?\n- Explain paging with a diagram.",
	}}
	archive := &fakeArchive{}
	svc := NewAnalysisService(db, gen, nil, nil, WithPaperArchive(archive))

	result, err := svc.Analyze(context.Background(), []Document{{Name: "os-2021.pdf", Content: []byte("paper")}})
	require.NoError(t, err)

	assert.Equal(t, uuid.Nil, result.BatchID)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, 2, result.StoredCount)
	assert.Empty(t, archive.keys)

	stored, err := svc.Questions().List(context.Background(), QuestionFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestAnalyzeWithClosedDatabase(t *testing.T) {
	db := testdb.New(t).GetDB()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	gen := &fakeGenerator{documents: map[string]string{
		"paper": "Questions:\n- What is a deadlock?\n- Explain paging with a diagram.",
	}}
	svc := NewAnalysisService(db, gen, nil, nil)

	result, err := svc.Analyze(context.Background(), []Document{{Name: "os-2021.pdf", Content: []byte("paper")}})
	require.NoError(t, err)

	assert.Equal(t, uuid.Nil, result.BatchID)
	assert.Zero(t, result.StoredCount)
	require.Len(t, result.Questions, 2)
	for _, q := range result.Questions {
		assert.Zero(t, q.ID)
		assert.NotEmpty(t, q.Answer)
		assert.NotEmpty(t, q.Topics)
	}
	assertSortedByImportance(t, result.Questions)
}
