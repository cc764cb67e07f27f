package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/pyq-analyzer/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrQuestionNotFound is returned when no question has the requested ID
var ErrQuestionNotFound = errors.New("question not found")

// likeEscaper makes user input match literally inside a LIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// QuestionFilter narrows a question listing
type QuestionFilter struct {
	Importance model.Importance
	Search     string
	Limit      int
}

// QuestionStore persists analyzed questions keyed by their normalized text
type QuestionStore struct {
	db *gorm.DB
}

// NewQuestionStore creates a new question store
func NewQuestionStore(db *gorm.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

// Upsert creates or updates q and reconciles its topics, resources and
// papers in one transaction. On return q holds the stored row.
func (s *QuestionStore) Upsert(ctx context.Context, q *model.AnalyzedQuestion) error {
	if q.NormalizedKey == "" {
		q.NormalizedKey = model.NormalizeQuestion(q.QuestionText)
	}
	if q.NormalizedKey == "" {
		return errors.New("question text is empty")
	}
	q.ImportanceRank = q.Importance.Rank()

	topics, resources, papers := q.Topics, q.Resources, q.Papers

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.AnalyzedQuestion{
			QuestionText:   q.QuestionText,
			NormalizedKey:  q.NormalizedKey,
			Frequency:      q.Frequency,
			Importance:     q.Importance,
			ImportanceRank: q.ImportanceRank,
			Answer:         q.Answer,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "normalized_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"question_text", "frequency", "importance", "importance_rank", "answer", "updated_at",
			}),
		}).Omit(clause.Associations).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert question: %w", err)
		}

		// the conflict path does not reliably return the existing ID
		var stored model.AnalyzedQuestion
		if err := tx.Select("id").Where("normalized_key = ?", q.NormalizedKey).First(&stored).Error; err != nil {
			return fmt.Errorf("load upserted question: %w", err)
		}

		if err := reconcileTopics(tx, stored.ID, topics); err != nil {
			return err
		}
		if err := reconcileResources(tx, stored.ID, resources); err != nil {
			return err
		}
		if err := mergePapers(tx, stored.ID, papers); err != nil {
			return err
		}

		var loaded model.AnalyzedQuestion
		if err := preloadAssociations(tx).First(&loaded, stored.ID).Error; err != nil {
			return fmt.Errorf("reload question: %w", err)
		}
		*q = loaded
		return nil
	})
}

// ReplaceResources reconciles only the resources of an existing question
func (s *QuestionStore) ReplaceResources(ctx context.Context, questionID uint, resources []model.QuestionResource) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reconcileResources(tx, questionID, resources)
	})
}

// List returns questions ordered by importance then frequency, both descending
func (s *QuestionStore) List(ctx context.Context, filter QuestionFilter) ([]model.AnalyzedQuestion, error) {
	query := preloadAssociations(s.db.WithContext(ctx))

	if filter.Importance != "" {
		query = query.Where("importance = ?", filter.Importance)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`normalized_key LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var questions []model.AnalyzedQuestion
	err := query.
		Order("importance_rank DESC").
		Order("frequency DESC").
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// Get returns one question with its associations
func (s *QuestionStore) Get(ctx context.Context, id uint) (*model.AnalyzedQuestion, error) {
	var q model.AnalyzedQuestion
	err := preloadAssociations(s.db.WithContext(ctx)).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	return &q, nil
}

// WithoutResources returns up to limit questions that have no resources yet
func (s *QuestionStore) WithoutResources(ctx context.Context, limit int) ([]model.AnalyzedQuestion, error) {
	var questions []model.AnalyzedQuestion
	err := s.db.WithContext(ctx).
		Preload("Topics", orderByPosition).
		Where("NOT EXISTS (SELECT 1 FROM question_resources r WHERE r.question_id = analyzed_questions.id)").
		Order("importance_rank DESC").
		Order("frequency DESC").
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("list questions without resources: %w", err)
	}
	return questions, nil
}

func preloadAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Topics", orderByPosition).
		Preload("Resources", orderByID).
		Preload("Papers", orderByID)
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("id ASC")
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// reconcilePlan maps desired entries onto existing rows sharing their key.
// Each existing row is matched at most once, so duplicate keys pair up in order.
type reconcilePlan struct {
	matched map[int]uint // desired index -> existing row ID
	stale   []uint       // existing rows no desired entry claimed
}

func planReconcile(existingKeys []string, existingIDs []uint, desiredKeys []string) reconcilePlan {
	pool := make(map[string][]uint, len(existingKeys))
	for i, key := range existingKeys {
		pool[key] = append(pool[key], existingIDs[i])
	}

	plan := reconcilePlan{matched: make(map[int]uint)}
	for i, key := range desiredKeys {
		if ids := pool[key]; len(ids) > 0 {
			plan.matched[i] = ids[0]
			pool[key] = ids[1:]
		}
	}

	claimed := make(map[uint]bool, len(plan.matched))
	for _, id := range plan.matched {
		claimed[id] = true
	}
	for _, id := range existingIDs {
		if !claimed[id] {
			plan.stale = append(plan.stale, id)
		}
	}
	return plan
}

func topicKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func reconcileTopics(tx *gorm.DB, questionID uint, desired []model.QuestionTopic) error {
	var existing []model.QuestionTopic
	if err := tx.Where("question_id = ?", questionID).Order("position ASC").Order("id ASC").Find(&existing).Error; err != nil {
		return fmt.Errorf("load topics: %w", err)
	}

	existingKeys := make([]string, len(existing))
	existingIDs := make([]uint, len(existing))
	for i, t := range existing {
		existingKeys[i] = topicKey(t.Name)
		existingIDs[i] = t.ID
	}
	desiredKeys := make([]string, len(desired))
	for i, t := range desired {
		desiredKeys[i] = topicKey(t.Name)
	}

	plan := planReconcile(existingKeys, existingIDs, desiredKeys)

	for i, t := range desired {
		if id, ok := plan.matched[i]; ok {
			err := tx.Model(&model.QuestionTopic{}).Where("id = ?", id).Updates(map[string]interface{}{
				"name":     t.Name,
				"score":    t.Score,
				"position": i,
			}).Error
			if err != nil {
				return fmt.Errorf("update topic: %w", err)
			}
			continue
		}

		row := model.QuestionTopic{QuestionID: questionID, Position: i, Name: t.Name, Score: t.Score}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}
	}

	if len(plan.stale) > 0 {
		if err := tx.Where("id IN ?", plan.stale).Delete(&model.QuestionTopic{}).Error; err != nil {
			return fmt.Errorf("delete stale topics: %w", err)
		}
	}
	return nil
}

func reconcileResources(tx *gorm.DB, questionID uint, desired []model.QuestionResource) error {
	var existing []model.QuestionResource
	if err := tx.Where("question_id = ?", questionID).Order("id ASC").Find(&existing).Error; err != nil {
		return fmt.Errorf("load resources: %w", err)
	}

	existingKeys := make([]string, len(existing))
	existingIDs := make([]uint, len(existing))
	for i, r := range existing {
		existingKeys[i] = r.URL
		existingIDs[i] = r.ID
	}
	desiredKeys := make([]string, len(desired))
	for i, r := range desired {
		desiredKeys[i] = r.URL
	}

	plan := planReconcile(existingKeys, existingIDs, desiredKeys)

	for i, r := range desired {
		if id, ok := plan.matched[i]; ok {
			err := tx.Model(&model.QuestionResource{}).Where("id = ?", id).Updates(map[string]interface{}{
				"type":            r.Type,
				"title":           r.Title,
				"relevance_score": r.RelevanceScore,
			}).Error
			if err != nil {
				return fmt.Errorf("update resource: %w", err)
			}
			continue
		}

		row := model.QuestionResource{
			QuestionID:     questionID,
			Type:           r.Type,
			Title:          r.Title,
			URL:            r.URL,
			RelevanceScore: r.RelevanceScore,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}
	}

	if len(plan.stale) > 0 {
		if err := tx.Where("id IN ?", plan.stale).Delete(&model.QuestionResource{}).Error; err != nil {
			return fmt.Errorf("delete stale resources: %w", err)
		}
	}
	return nil
}

// mergePapers inserts papers not yet linked; existing links are never removed
func mergePapers(tx *gorm.DB, questionID uint, papers []model.QuestionPaper) error {
	var existing []model.QuestionPaper
	if err := tx.Where("question_id = ?", questionID).Find(&existing).Error; err != nil {
		return fmt.Errorf("load papers: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name+"\x00"+p.Year] = true
	}

	for _, p := range papers {
		key := p.Name + "\x00" + p.Year
		if seen[key] {
			continue
		}
		seen[key] = true

		row := model.QuestionPaper{QuestionID: questionID, Name: p.Name, Year: p.Year}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert paper: %w", err)
		}
	}
	return nil
}
