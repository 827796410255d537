package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/cache"
	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/attribution-dashboard/brand-mentions/internal/export"
	"github.com/attribution-dashboard/brand-mentions/internal/metrics"
	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/monitoring"
	"github.com/attribution-dashboard/brand-mentions/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	formatFlag := flag.String("format", "all", "csv, json, dashboard or all")
	outDir := flag.String("out", "exports", "output directory")
	daysBack := flag.Int("days", 0, "only export mentions from the last N days (0 exports everything)")
	maxAge := flag.Duration("max-age", 0, "reject snapshots older than this (defaults to CACHE_MAX_AGE)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logrus.SetLevel(logrus.WarnLevel)

	formats, err := selectFormats(*formatFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *maxAge <= 0 {
		*maxAge = cfg.CacheMaxAge
	}

	ctx := context.Background()
	storageClient, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	snapshot, err := cache.New(storageClient, cfg.CacheFile).Read(ctx, *maxAge)
	if err != nil {
		log.Fatalf("No usable snapshot: %v (run a refresh first)", err)
	}

	mentions := metrics.FilterByDays(snapshot.Mentions, *daysBack, time.Now())
	fmt.Printf("📦 Snapshot from %s: %d mentions for %s (%d selected)\n",
		snapshot.Timestamp, snapshot.TotalCount, snapshot.BrandName, len(mentions))

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create %s: %v", *outDir, err)
	}

	stamp := time.Now().Format("20060102_150405")
	for _, format := range formats {
		path, err := writeFile(*outDir, stamp, format, mentions)
		if err != nil {
			log.Fatalf("Export %s failed: %v", format, err)
		}
		fmt.Printf("💾 Wrote %s\n", path)
	}

	service := monitoring.NewService(cfg, nil, nil)
	printReport(service.GenerateReport(mentions, periodLabel(*daysBack)))
}

func selectFormats(value string) ([]export.Format, error) {
	if strings.EqualFold(value, "all") {
		return []export.Format{export.FormatCSV, export.FormatJSON, export.FormatDashboard}, nil
	}
	format, err := export.ParseFormat(value)
	if err != nil {
		return nil, err
	}
	return []export.Format{format}, nil
}

func writeFile(dir, stamp string, format export.Format, mentions []models.Mention) (string, error) {
	prefix := "mentions"
	if format == export.FormatDashboard {
		prefix = "dashboard_mentions"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, stamp, format.Extension()))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := export.Write(f, format, mentions); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func periodLabel(daysBack int) string {
	if daysBack <= 0 {
		return "full snapshot"
	}
	return fmt.Sprintf("last %d days", daysBack)
}

func printReport(report *models.Report) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("📊 %s MENTIONS REPORT\n", strings.ToUpper(report.BrandName))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📅 Period: %s\n", report.Period)
	fmt.Printf("📈 Total Mentions: %d\n", report.TotalMentions)

	if top, ok := report.Summary["top_sources"].([]string); ok && len(top) > 0 {
		fmt.Printf("\n📍 Top Sources: %s\n", strings.Join(top, ", "))
	}

	if sentimentStats, ok := report.Summary["sentiment"].(map[string]int); ok {
		fmt.Println("\n💭 Sentiment Analysis:")
		for _, label := range []string{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative} {
			emoji := "😐"
			switch label {
			case models.SentimentPositive:
				emoji = "😊"
			case models.SentimentNegative:
				emoji = "😞"
			}
			fmt.Printf("   %s %-10s %d mentions\n", emoji, label+":", sentimentStats[label])
		}
	}

	fmt.Println("\n📝 Recent Mentions:")
	for i, mention := range report.Mentions {
		if i >= 5 {
			fmt.Printf("   ... and %d more mentions\n", len(report.Mentions)-5)
			break
		}
		fmt.Printf("\n   %d. [%s] %s\n", i+1, mention.Source, mention.Title)
		if mention.Author != "" {
			fmt.Printf("      👤 Author: %s\n", mention.Author)
		}
		fmt.Printf("      🔗 URL: %s\n", mention.URL)
		fmt.Printf("      💭 Sentiment: %s | ⭐ Relevance: %.2f\n", mention.Sentiment, mention.RelevanceScore)
		fmt.Printf("      🕒 Posted: %s\n", mention.CreatedAt)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
}
