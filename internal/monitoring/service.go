package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/cache"
	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/attribution-dashboard/brand-mentions/internal/dedupe"
	"github.com/attribution-dashboard/brand-mentions/internal/metrics"
	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/normalize"
	"github.com/attribution-dashboard/brand-mentions/internal/notifications"
	"github.com/attribution-dashboard/brand-mentions/internal/relevance"
	"github.com/attribution-dashboard/brand-mentions/internal/sentiment"
	"github.com/attribution-dashboard/brand-mentions/internal/sources"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// EmptyCacheMessage is returned with an empty mention list when no usable snapshot exists
const EmptyCacheMessage = "No cached data available. Use /refresh to fetch new data."

// SourceFactory builds the source adapters for one run from its credentials
type SourceFactory func(creds config.Credentials) []sources.Source

// DefaultSources builds every supported adapter
func DefaultSources(creds config.Credentials) []sources.Source {
	return []sources.Source{
		sources.NewTikTokSource(creds.ScrapeCreatorsKey),
		sources.NewYouTubeSource(creds.ScrapeCreatorsKey),
		sources.NewRedditSource(creds.ScrapeCreatorsKey),
		sources.NewExaSource(creds.ExaKey),
	}
}

// Service drives ingestion runs and serves cached mentions
type Service struct {
	config              *config.Config
	cache               *cache.Store
	notificationService notifications.NotificationInterface
	sourceFactory       SourceFactory
	sentimentOptions    sentiment.Options

	chainMu  sync.Mutex
	envChain *sentiment.Chain

	metrics *Metrics
	mu      sync.RWMutex
	now     func() time.Time
}

// Metrics holds run metrics of the last refresh
type Metrics struct {
	TotalMentions      int               `json:"total_mentions"`
	LastRunID          string            `json:"last_run_id"`
	LastRun            time.Time         `json:"last_run"`
	LastRunDuration    string            `json:"last_run_duration"`
	SourceMetrics      map[string]int    `json:"source_metrics"`
	SourceErrors       map[string]string `json:"source_errors"`
	SentimentBreakdown map[string]int    `json:"sentiment_breakdown"`
	ErrorCount         int               `json:"error_count"`
	Runs               int               `json:"runs"`
}

// RefreshRequest parameterises one refresh
type RefreshRequest struct {
	DaysBack    int
	Platform    string // "all", a provider name or a platform kind
	MaxResults  int
	Credentials config.Credentials
}

// MentionsQuery parameterises a cached read
type MentionsQuery struct {
	DaysBack     int
	Platform     string
	ForceRefresh bool
}

// MentionsResult is the cached view returned by Mentions
type MentionsResult struct {
	Mentions          []models.Mention `json:"data"`
	TotalCount        int              `json:"total_count"`
	Source            string           `json:"source"` // "cache" or "empty"
	Message           string           `json:"message,omitempty"`
	CacheTimestamp    string           `json:"cache_timestamp,omitempty"`
	BrandName         string           `json:"brand_name"`
	PlatformsSearched []string         `json:"platforms_searched"`
}

// Option customises a Service
type Option func(*Service)

// WithSourceFactory replaces the adapters built for each run
func WithSourceFactory(factory SourceFactory) Option {
	return func(s *Service) {
		s.sourceFactory = factory
	}
}

// WithSentimentOptions sets the sentiment tiers. The API key is taken from each run's credentials.
func WithSentimentOptions(opts sentiment.Options) Option {
	return func(s *Service) {
		s.sentimentOptions = opts
	}
}

// NewService creates a new monitoring service. notificationService may be nil.
func NewService(cfg *config.Config, store *cache.Store, notificationService notifications.NotificationInterface, opts ...Option) *Service {
	service := &Service{
		config:              cfg,
		cache:               store,
		notificationService: notificationService,
		sourceFactory:       DefaultSources,
		sentimentOptions: sentiment.Options{
			Model:       cfg.OpenRouterModel,
			EnableVader: cfg.EnableVader,
		},
		metrics: &Metrics{
			SourceMetrics:      make(map[string]int),
			SourceErrors:       make(map[string]string),
			SentimentBreakdown: make(map[string]int),
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Sentiment returns the classifier chain for the given credentials.
// Only the chain for the environment key is kept; per-request keys get a fresh chain.
func (s *Service) Sentiment(creds config.Credentials) *sentiment.Chain {
	opts := s.sentimentOptions
	opts.APIKey = creds.OpenRouterKey

	if creds.OpenRouterKey != s.config.OpenRouterAPIKey {
		return sentiment.New(opts)
	}

	s.chainMu.Lock()
	defer s.chainMu.Unlock()

	if s.envChain == nil {
		s.envChain = sentiment.New(opts)
	}
	return s.envChain
}

type branchResult struct {
	name     string
	mentions []models.Mention
	err      error
}

// Refresh runs every enabled source matching the platform filter, merges, dedupes,
// filters by age, sorts newest first and overwrites the cache, even with zero mentions.
// Source failures never fail the refresh; they are reported per source.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*models.RefreshResult, error) {
	start := s.now()
	runID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"run_id": runID, "brand": s.config.BrandName})

	if req.DaysBack <= 0 {
		req.DaysBack = s.config.DaysBack
	}
	if req.Platform == "" {
		req.Platform = "all"
	}

	active := s.activeSources(req.Credentials, req.Platform)
	log.Infof("Starting refresh over %d sources (days_back=%d, platform=%s)", len(active), req.DaysBack, req.Platform)

	chain := s.Sentiment(req.Credentials)
	results := make([]branchResult, len(active))

	// Branches never return an error so one failure cannot cancel the others
	var g errgroup.Group
	for i, src := range active {
		i, src := i, src
		g.Go(func() error {
			results[i] = s.runBranch(ctx, src, req, chain)
			return nil
		})
	}
	_ = g.Wait()

	result := &models.RefreshResult{
		RunID:             runID,
		PlatformsSearched: make([]string, 0, len(active)),
		SourceCounts:      make(map[string]int),
		SourceErrors:      make(map[string]string),
	}

	var merged []models.Mention
	for _, branch := range results {
		result.PlatformsSearched = append(result.PlatformsSearched, branch.name)
		result.SourceCounts[branch.name] = len(branch.mentions)
		if branch.err != nil {
			result.SourceErrors[branch.name] = branch.err.Error()
		}
		merged = append(merged, branch.mentions...)
	}

	mentions := dedupe.Dedupe(merged)
	mentions = metrics.FilterByDays(mentions, req.DaysBack, s.now())
	SortNewestFirst(mentions)

	// The write must happen even when the caller's deadline has passed
	result.Cached = s.cache.Write(context.WithoutCancel(ctx), mentions, s.config.BrandName)
	result.Mentions = mentions
	result.TotalCount = len(mentions)
	duration := s.now().Sub(start)
	result.Duration = duration.String()

	s.updateMetrics(runID, mentions, duration, result.SourceErrors)

	log.Infof("Refresh completed in %v: %d mentions (%d before dedupe), cached=%t",
		duration, len(mentions), len(merged), result.Cached)

	if len(active) > 0 && len(result.SourceErrors) == len(active) && len(mentions) == 0 {
		s.alertAllSourcesFailed(result)
	}

	return result, nil
}

func (s *Service) runBranch(ctx context.Context, src sources.Source, req RefreshRequest, chain *sentiment.Chain) (result branchResult) {
	result.name = src.GetName()
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Source %s panicked: %v", src.GetName(), r)
			result.mentions = nil
			result.err = fmt.Errorf("source panicked: %v", r)
		}
	}()

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.config.MaxResults
		if src.GetPlatform() == models.PlatformWeb {
			maxResults = s.config.WebMaxResults
		}
	}

	logrus.Infof("Fetching mentions from %s", src.GetName())
	items, err := sources.Collect(ctx, src, s.config.BrandName, req.DaysBack, maxResults)
	result.err = err

	mentions, dropped := normalize.NormalizeAll(items, normalize.Context{Brand: s.config.BrandName, Now: s.now()})
	s.enrich(ctx, mentions, chain)

	if src.GetPlatform() == models.PlatformWeb {
		mentions = dedupe.Dedupe(mentions)
		mentions = relevance.FilterRelevant(mentions, s.config.RelevanceThreshold)
	}

	logrus.Infof("Found %d mentions from %s (%d raw, %d dropped)", len(mentions), src.GetName(), len(items), dropped)
	result.mentions = mentions
	return result
}

// enrich fills sentiment and relevance in place
func (s *Service) enrich(ctx context.Context, mentions []models.Mention, chain *sentiment.Chain) {
	brand := s.config.BrandName

	if s.config.EnableSentimentAnalysis && len(mentions) > 0 {
		// Mentions from one branch share a source, so one context covers the batch
		texts := make([]string, len(mentions))
		for i, m := range mentions {
			texts[i] = sentimentText(m)
		}
		results := chain.Batch(ctx, texts, sentiment.Context{Brand: brand, Platform: mentions[0].Source})
		for i, r := range results {
			mentions[i].Sentiment = r.Sentiment
			mentions[i].SentimentConfidence = r.Confidence
			mentions[i].SentimentMethod = r.Method
		}
	}

	for i := range mentions {
		mentions[i].RelevanceScore = relevance.Score(mentions[i], brand)
	}
}

func sentimentText(m models.Mention) string {
	if m.Platform == models.PlatformWeb && m.Title != "" && !strings.Contains(m.Content, m.Title) {
		return m.Title + ". " + m.Content
	}
	return m.Content
}

func (s *Service) activeSources(creds config.Credentials, platform string) []sources.Source {
	var active []sources.Source
	for _, src := range s.sourceFactory(creds) {
		if !src.IsEnabled() {
			logrus.Debugf("Skipping %s: no credentials", src.GetName())
			continue
		}
		if !matchesAny(src, s.config.Platforms) || !matchesFilter(src, platform) {
			continue
		}
		active = append(active, src)
	}
	return active
}

func matchesFilter(src sources.Source, filter string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" || filter == "all" {
		return true
	}
	return filter == src.GetName() || filter == string(src.GetPlatform())
}

func matchesAny(src sources.Source, platforms []string) bool {
	if len(platforms) == 0 {
		return true
	}
	for _, p := range platforms {
		if matchesFilter(src, p) {
			return true
		}
	}
	return false
}

// SortNewestFirst orders mentions by created_at descending. Unparsable timestamps sort last.
func SortNewestFirst(mentions []models.Mention) {
	sort.SliceStable(mentions, func(i, j int) bool {
		ti, okI := mentions[i].CreatedTime()
		tj, okJ := mentions[j].CreatedTime()
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
}

// Mentions serves the cached snapshot filtered by platform and age. A missing or stale
// snapshot, or an explicit force refresh, yields an empty result pointing at /refresh.
func (s *Service) Mentions(ctx context.Context, q MentionsQuery) *MentionsResult {
	if q.DaysBack <= 0 {
		q.DaysBack = s.config.DaysBack
	}

	empty := &MentionsResult{
		Mentions:          []models.Mention{},
		Source:            "empty",
		Message:           EmptyCacheMessage,
		BrandName:         s.config.BrandName,
		PlatformsSearched: []string{},
	}
	if q.ForceRefresh {
		return empty
	}

	snapshot, err := s.cache.Read(ctx, s.config.CacheMaxAge)
	if err != nil {
		if !errors.Is(err, cache.ErrNoSnapshot) {
			logrus.Warnf("Unexpected cache error: %v", err)
		}
		return empty
	}

	var mentions []models.Mention
	seen := make(map[string]bool)
	platforms := []string{}
	for _, m := range metrics.FilterByDays(snapshot.Mentions, q.DaysBack, s.now()) {
		if !m.MatchesPlatform(q.Platform) {
			continue
		}
		mentions = append(mentions, m)
		if !seen[m.Source] {
			seen[m.Source] = true
			platforms = append(platforms, m.Source)
		}
	}
	if mentions == nil {
		mentions = []models.Mention{}
	}

	return &MentionsResult{
		Mentions:          mentions,
		TotalCount:        len(mentions),
		Source:            "cache",
		CacheTimestamp:    snapshot.Timestamp,
		BrandName:         snapshot.BrandName,
		PlatformsSearched: platforms,
	}
}

// CachedMentions returns every mention of a fresh snapshot, or nil when there is none
func (s *Service) CachedMentions(ctx context.Context) []models.Mention {
	snapshot, err := s.cache.Read(ctx, s.config.CacheMaxAge)
	if err != nil {
		return nil
	}
	return snapshot.Mentions
}

func (s *Service) updateMetrics(runID string, mentions []models.Mention, duration time.Duration, sourceErrors map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalMentions = len(mentions)
	s.metrics.LastRunID = runID
	s.metrics.LastRun = s.now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.ErrorCount = len(sourceErrors)
	s.metrics.Runs++

	// Reset counters
	s.metrics.SourceMetrics = make(map[string]int)
	s.metrics.SentimentBreakdown = make(map[string]int)
	s.metrics.SourceErrors = make(map[string]string, len(sourceErrors))
	for name, msg := range sourceErrors {
		s.metrics.SourceErrors[name] = msg
	}

	for _, mention := range mentions {
		s.metrics.SourceMetrics[mention.Source]++
		s.metrics.SentimentBreakdown[mention.Sentiment]++
	}
}

// GetRunMetrics returns a copy of the current run metrics
func (s *Service) GetRunMetrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := *s.metrics
	copied.SourceMetrics = copyCounts(s.metrics.SourceMetrics)
	copied.SentimentBreakdown = copyCounts(s.metrics.SentimentBreakdown)
	copied.SourceErrors = make(map[string]string, len(s.metrics.SourceErrors))
	for k, v := range s.metrics.SourceErrors {
		copied.SourceErrors[k] = v
	}
	return copied
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
