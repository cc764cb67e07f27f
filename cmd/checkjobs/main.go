package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/pyq-analyzer/config"
	"github.com/sahilchouksey/pyq-analyzer/database"
	"github.com/sahilchouksey/pyq-analyzer/model"
	"github.com/sahilchouksey/pyq-analyzer/services"
	"gorm.io/gorm"
)

// importanceCount is one row of the per-label question summary
type importanceCount struct {
	Importance model.Importance
	Count      int64
}

func main() {
	limit := flag.Int("limit", 20, "number of batches and job logs to show")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	env, err := config.Get()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := database.StartGORM(env, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db := store.GetDB().WithContext(ctx)

	fmt.Println("========================================")
	fmt.Println("ANALYSIS BATCHES")
	fmt.Println("========================================")

	batches, err := services.NewBatchStore(db).Recent(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to fetch batches: %v", err)
	}
	if len(batches) == 0 {
		fmt.Println("\nNo analysis batches found")
	}
	for _, b := range batches {
		fmt.Printf("─────────────────────────────────────\n")
		fmt.Printf("%s Batch %s\n", batchIcon(b.Status), b.ID)
		fmt.Printf("   Status: %s\n", b.Status)
		fmt.Printf("   Questions: %d extracted, %d unique, %d stored\n", b.QuestionCount, b.UniqueCount, b.StoredCount)
		fmt.Printf("   Files: %s\n", truncate(string(b.FileNames), 80))
		if len(b.FailedFiles) > 0 && string(b.FailedFiles) != "[]" {
			fmt.Printf("   Failed files: %s\n", truncate(string(b.FailedFiles), 80))
		}
		fmt.Printf("   Created: %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
		if b.CompletedAt != nil {
			fmt.Printf("   Completed: %s\n", b.CompletedAt.Format("2006-01-02 15:04:05"))
		}
		if b.ErrorMsg != "" {
			fmt.Printf("   Error: %s\n", b.ErrorMsg)
		}
	}

	fmt.Println("\n========================================")
	fmt.Println("QUESTIONS BY IMPORTANCE")
	fmt.Println("========================================")
	if err := printImportanceSummary(db); err != nil {
		log.Fatalf("Failed to summarize questions: %v", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("CRON JOB LOGS")
	fmt.Println("========================================")

	var logs []model.CronJobLog
	if err := db.Order("started_at DESC").Limit(*limit).Find(&logs).Error; err != nil {
		log.Fatalf("Failed to fetch cron logs: %v", err)
	}
	if len(logs) == 0 {
		fmt.Println("No cron job runs recorded")
	}
	for _, l := range logs {
		fmt.Printf("[%s] %s %s (%dms) %s\n",
			l.StartedAt.Format("2006-01-02 15:04:05"), l.JobName, l.Status, l.Duration,
			truncate(l.Message+l.ErrorMsg, 60))
	}

	fmt.Println("\n========================================")
}

func printImportanceSummary(db *gorm.DB) error {
	var counts []importanceCount
	err := db.Model(&model.AnalyzedQuestion{}).
		Select("importance, COUNT(*) AS count").
		Group("importance").
		Order("importance").
		Scan(&counts).Error
	if err != nil {
		return err
	}

	var withoutResources int64
	err = db.Model(&model.AnalyzedQuestion{}).
		Where("NOT EXISTS (SELECT 1 FROM question_resources r WHERE r.question_id = analyzed_questions.id)").
		Count(&withoutResources).Error
	if err != nil {
		return err
	}

	for _, c := range counts {
		fmt.Printf("   %-9s %d\n", c.Importance, c.Count)
	}
	fmt.Printf("   without resources: %d\n", withoutResources)
	return nil
}

func batchIcon(status model.AnalysisBatchStatus) string {
	switch status {
	case model.AnalysisBatchCompleted:
		return "✅"
	case model.AnalysisBatchFailed:
		return "❌"
	default:
		return "🔄"
	}
}

// truncate shortens s to at most max runes
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
