package cache

import (
	"context"
	"math"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/storage"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultMaxAge is the staleness threshold used when callers have no preference
const DefaultMaxAge = 24 * time.Hour

// DefaultName is the object name of the snapshot
const DefaultName = "mentions_cache.json"

// ErrNoSnapshot means there is no usable snapshot: none was written, it is too old, or it cannot be decoded
var ErrNoSnapshot = errors.New("no cached snapshot available")

// Status is the introspection view of the cache
type Status struct {
	Cached         bool    `json:"cached"`
	CacheTimestamp string  `json:"cache_timestamp,omitempty"`
	TotalMentions  int     `json:"total_mentions"`
	BrandName      string  `json:"brand_name,omitempty"`
	FileAgeHours   float64 `json:"file_age_hours"`
	FileSizeKB     float64 `json:"file_size_kb"`
	IsStale        bool    `json:"is_stale"`
	Error          string  `json:"error,omitempty"`
}

// Store owns the single snapshot object. It compares timestamps only;
// the staleness threshold is always supplied by the caller.
type Store struct {
	storage storage.StorageInterface
	name    string
	now     func() time.Time
}

func New(s storage.StorageInterface, name string) *Store {
	if name == "" {
		name = DefaultName
	}
	return &Store{
		storage: s,
		name:    name,
		now:     time.Now,
	}
}

// Read returns the snapshot when it is no older than maxAge.
// A stale snapshot is reported as ErrNoSnapshot and left in place.
func (c *Store) Read(ctx context.Context, maxAge time.Duration) (*models.Snapshot, error) {
	snapshot, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	ts, ok := models.ParseTimestamp(snapshot.Timestamp)
	if !ok {
		logrus.Warnf("Cached snapshot has an invalid timestamp %q", snapshot.Timestamp)
		return nil, ErrNoSnapshot
	}
	if age := c.now().Sub(ts); age > maxAge {
		logrus.Debugf("Cached snapshot is stale (age %s, max %s)", age.Round(time.Second), maxAge)
		return nil, ErrNoSnapshot
	}

	return snapshot, nil
}

// Write replaces the snapshot with mentions. Failures are logged and reported as false.
func (c *Store) Write(ctx context.Context, mentions []models.Mention, brandName string) bool {
	if mentions == nil {
		mentions = []models.Mention{}
	}
	snapshot := models.Snapshot{
		Timestamp:  models.FormatTimestamp(c.now()),
		BrandName:  brandName,
		TotalCount: len(mentions),
		Mentions:   mentions,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		logrus.Errorf("Failed to encode mention cache: %v", err)
		return false
	}
	if err := c.storage.Store(ctx, c.name, data); err != nil {
		logrus.Errorf("Failed to write mention cache: %v", err)
		return false
	}

	logrus.Infof("Cached %d mentions for %s", len(mentions), brandName)
	return true
}

// Status inspects the stored snapshot without changing it
func (c *Store) Status(ctx context.Context, maxAge time.Duration) Status {
	info, err := c.storage.Stat(ctx, c.name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return Status{Error: err.Error()}
		}
		return Status{}
	}

	status := Status{
		Cached:     true,
		FileSizeKB: round1(float64(info.Size) / 1024),
	}
	age := c.now().Sub(info.ModTime)

	snapshot, err := c.load(ctx)
	if err != nil {
		status.Error = err.Error()
	} else {
		status.CacheTimestamp = snapshot.Timestamp
		status.TotalMentions = snapshot.TotalCount
		status.BrandName = snapshot.BrandName
		if ts, ok := models.ParseTimestamp(snapshot.Timestamp); ok {
			age = c.now().Sub(ts)
		}
	}

	status.FileAgeHours = round1(age.Hours())
	status.IsStale = age > maxAge
	return status
}

func (c *Store) load(ctx context.Context) (*models.Snapshot, error) {
	data, err := c.storage.Retrieve(ctx, c.name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoSnapshot
		}
		logrus.Warnf("Failed to read mention cache: %v", err)
		return nil, errors.Wrap(ErrNoSnapshot, err.Error())
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logrus.Warnf("Mention cache is corrupt: %v", err)
		return nil, errors.Wrapf(ErrNoSnapshot, "corrupt cache: %v", err)
	}
	if snapshot.Mentions == nil {
		snapshot.Mentions = []models.Mention{}
	}
	return &snapshot, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
