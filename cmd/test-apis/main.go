package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/analytics"
	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/attribution-dashboard/brand-mentions/internal/monitoring"
	"github.com/attribution-dashboard/brand-mentions/internal/normalize"
	"github.com/attribution-dashboard/brand-mentions/internal/sentiment"
	"github.com/attribution-dashboard/brand-mentions/internal/sources"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🔍 Brand Mentions - API Connectivity Test")
	fmt.Println("=========================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Printf("\n📡 Testing sources for %q...\n", cfg.BrandName)
	fmt.Println(strings.Repeat("-", 40))

	for _, source := range monitoring.DefaultSources(cfg.Credentials()) {
		testSource(ctx, source, cfg.BrandName)
	}

	fmt.Println("\n🧠 Testing sentiment...")
	fmt.Println(strings.Repeat("-", 40))
	testSentiment(ctx, cfg)

	if cfg.GA4Enabled() {
		fmt.Println("\n📈 Testing GA4...")
		fmt.Println(strings.Repeat("-", 40))
		testGA4(ctx, cfg)
	}

	fmt.Println("\n✅ API connectivity test completed!")
}

// testSource fetches a single page for the first query variant
func testSource(ctx context.Context, source sources.Source, brand string) {
	fmt.Printf("🔸 Testing %s... ", source.GetName())

	if !source.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing API key)\n")
		return
	}

	variants := source.QueryVariants(brand)
	page, err := source.Fetch(ctx, sources.Request{Query: variants[0], DaysBack: 7, Limit: 5})
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	mentions, dropped := normalize.NormalizeAll(page.Items, normalize.Context{Brand: brand, Now: time.Now()})
	fmt.Printf("✅ SUCCESS (%d raw, %d normalized, %d dropped, %d query variants)\n",
		len(page.Items), len(mentions), dropped, len(variants))

	if len(mentions) > 0 {
		fmt.Printf("   📝 Sample: %q (%s)\n", mentions[0].Title, mentions[0].URL)
	}
}

func testSentiment(ctx context.Context, cfg *config.Config) {
	chain := sentiment.New(sentiment.Options{
		APIKey:      cfg.OpenRouterAPIKey,
		Model:       cfg.OpenRouterModel,
		EnableVader: cfg.EnableVader,
	})

	text := fmt.Sprintf("I really love how easy %s makes my workflow", cfg.BrandName)
	result := chain.Classify(ctx, text, sentiment.Context{Brand: cfg.BrandName, Platform: "web"})
	fmt.Printf("🔸 Chain %v: %s (%.2f) via %s\n", chain.Config()["tiers"], result.Sentiment, result.Confidence, result.Method)
}

func testGA4(ctx context.Context, cfg *config.Config) {
	client, err := analytics.NewGA4Client(ctx, analytics.GA4Options{
		PropertyID:      cfg.GA4PropertyID,
		CredentialsFile: cfg.GA4CredentialsFile,
		CredentialsJSON: cfg.GA4CredentialsJSON,
		OrganicShare:    cfg.BrandedOrganicShare,
	})
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	direct, err := client.DirectTraffic(ctx, 7)
	if err != nil {
		fmt.Printf("❌ Direct traffic: %v\n", err)
	} else {
		fmt.Printf("✅ Direct traffic (7 days): %d sessions\n", direct)
	}

	branded, err := client.BrandedSearch(ctx, []string{cfg.BrandName}, 7)
	if err != nil {
		fmt.Printf("❌ Branded search: %v\n", err)
	} else {
		fmt.Printf("✅ Branded search (7 days): %d sessions\n", branded)
	}
}
