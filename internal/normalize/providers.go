package normalize

import (
	"fmt"
	"strings"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/sources"
)

type tikTokItem struct {
	AwemeInfo struct {
		AwemeID    flexString `json:"aweme_id"`
		Desc       flexString `json:"desc"`
		CreateTime flexNumber `json:"create_time"`
		Author     struct {
			UniqueID flexString `json:"unique_id"`
			Nickname flexString `json:"nickname"`
			UID      flexString `json:"uid"`
		} `json:"author"`
		Statistics struct {
			DiggCount    flexNumber `json:"digg_count"`
			ShareCount   flexNumber `json:"share_count"`
			CommentCount flexNumber `json:"comment_count"`
			PlayCount    flexNumber `json:"play_count"`
		} `json:"statistics"`
		Video struct {
			Duration flexNumber `json:"duration"` // milliseconds
		} `json:"video"`
		TextExtra []struct {
			Type        flexNumber `json:"type"`
			HashtagName flexString `json:"hashtag_name"`
		} `json:"text_extra"`
	} `json:"aweme_info"`
}

func normalizeTikTok(item sources.RawItem, ctx Context) *models.Mention {
	var raw tikTokItem
	if !decode(item, &raw) {
		return nil
	}
	info := raw.AwemeInfo

	id := string(info.AwemeID)
	if strings.TrimSpace(id) == "" {
		return nil
	}

	m := newMention(id, models.PlatformShortVideo, models.SourceTikTok, ctx)
	m.ContentType = firstNonEmpty(item.ContentType, "video")
	m.Content = info.Desc.String()
	m.Title = DefaultTitle(m.Content)
	m.AuthorUsername = info.Author.UniqueID.String()
	m.Author = firstNonEmpty(info.Author.Nickname.String(), m.AuthorUsername, "Unknown")
	m.AuthorID = info.Author.UID.String()
	m.CreatedAt, m.DateEstimated = coerceTimestamp(ctx.Now, float64(info.CreateTime))
	if m.AuthorUsername != "" {
		m.URL = fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", m.AuthorUsername, id)
	}
	m.Engagement = models.Engagement{
		"likes":    float64(info.Statistics.DiggCount),
		"shares":   float64(info.Statistics.ShareCount),
		"comments": float64(info.Statistics.CommentCount),
		"plays":    float64(info.Statistics.PlayCount),
	}
	m.VideoDuration = float64(info.Video.Duration) / 1000
	for _, extra := range info.TextExtra {
		if extra.Type == 1 && extra.HashtagName.String() != "" {
			m.Hashtags = append(m.Hashtags, "#"+extra.HashtagName.String())
		}
	}
	m.SearchQuery = item.Query
	m.WordCount = CountWords(m.Content)

	return m
}

type youTubeItem struct {
	ID                flexString `json:"id"`
	URL               flexString `json:"url"`
	Title             flexString `json:"title"`
	Description       flexString `json:"description"`
	PublishedTime     flexString `json:"publishedTime"`
	PublishedTimeText flexString `json:"publishedTimeText"`
	ViewCountInt      flexNumber `json:"viewCountInt"`
	LengthSeconds     flexNumber `json:"lengthSeconds"`
	Thumbnail         flexString `json:"thumbnail"`
	Channel           struct {
		ID     flexString `json:"id"`
		Title  flexString `json:"title"`
		Handle flexString `json:"handle"`
	} `json:"channel"`
}

func normalizeYouTube(item sources.RawItem, ctx Context) *models.Mention {
	var raw youTubeItem
	if !decode(item, &raw) {
		return nil
	}

	id := string(raw.ID)
	if strings.TrimSpace(id) == "" {
		return nil
	}

	m := newMention(id, models.PlatformShortVideo, models.SourceYouTube, ctx)
	m.ContentType = firstNonEmpty(item.ContentType, "video")
	m.Title = StripHTML(raw.Title.String())
	m.Content = firstNonEmpty(StripHTML(raw.Description.String()), m.Title)
	m.Author = firstNonEmpty(raw.Channel.Title.String(), "Unknown")
	m.AuthorUsername = strings.TrimPrefix(raw.Channel.Handle.String(), "@")
	m.AuthorID = raw.Channel.ID.String()
	m.CreatedAt, m.DateEstimated = coerceTimestamp(ctx.Now, 0, raw.PublishedTime.String(), raw.PublishedTimeText.String())
	m.URL = firstNonEmpty(raw.URL.String(), "https://www.youtube.com/watch?v="+id)
	m.Engagement = models.Engagement{
		"views":    float64(raw.ViewCountInt),
		"likes":    0,
		"comments": 0,
		"shares":   0,
	}
	m.VideoDuration = float64(raw.LengthSeconds)
	m.Thumbnail = raw.Thumbnail.String()
	m.SearchQuery = item.Query
	m.WordCount = CountWords(m.Content)

	return m
}

type redditPost struct {
	ID           flexString `json:"id"`
	Subreddit    flexString `json:"subreddit"`
	Author       flexString `json:"author"`
	Permalink    flexString `json:"permalink"`
	URL          flexString `json:"url"`
	CreatedUTC   flexNumber `json:"created_utc"`
	CreatedISO   flexString `json:"created_at_iso"`
	Title        flexString `json:"title"`
	Selftext     flexString `json:"selftext"`
	Score        flexNumber `json:"score"`
	Ups          flexNumber `json:"ups"`
	Downs        flexNumber `json:"downs"`
	NumComments  flexNumber `json:"num_comments"`
	UpvoteRatio  flexNumber `json:"upvote_ratio"`
	IsSelf       flexBool   `json:"is_self"`
	Domain       flexString `json:"domain"`
	Thumbnail    flexString `json:"thumbnail"`
	AuthorFullID flexString `json:"author_fullname"`
}

func normalizeReddit(item sources.RawItem, ctx Context) *models.Mention {
	var raw redditPost
	if !decode(item, &raw) {
		return nil
	}

	id := string(raw.ID)
	if strings.TrimSpace(id) == "" {
		return nil
	}

	m := newMention(id, models.PlatformForum, models.SourceReddit, ctx)
	m.Title = raw.Title.String()
	m.Content = m.Title
	if body := MarkdownToText(raw.Selftext.String()); body != "" {
		m.Content = strings.TrimSpace(m.Title + "\n" + body)
	}
	if m.Title == "" {
		m.Title = DefaultTitle(m.Content)
	}
	m.ContentType = "link"
	if raw.IsSelf {
		m.ContentType = "text"
	}
	m.Author = firstNonEmpty(raw.Author.String(), "Unknown")
	m.AuthorUsername = raw.Author.String()
	m.AuthorID = raw.AuthorFullID.String()
	m.Subreddit = raw.Subreddit.String()
	m.CreatedAt, m.DateEstimated = coerceTimestamp(ctx.Now, float64(raw.CreatedUTC), raw.CreatedISO.String())
	if permalink := raw.Permalink.String(); permalink != "" {
		m.URL = "https://www.reddit.com" + permalink
	} else {
		m.URL = raw.URL.String()
	}
	m.Engagement = models.Engagement{
		"score":        float64(raw.Score),
		"ups":          float64(raw.Ups),
		"downs":        float64(raw.Downs),
		"comments":     float64(raw.NumComments),
		"upvote_ratio": float64(raw.UpvoteRatio),
	}
	m.Domain = raw.Domain.String()
	if thumb := raw.Thumbnail.String(); strings.HasPrefix(thumb, "http") {
		m.Thumbnail = thumb
	}
	m.SearchQuery = item.Query
	m.WordCount = CountWords(m.Content)

	return m
}

type exaResult struct {
	ID            flexString `json:"id"`
	URL           flexString `json:"url"`
	Title         flexString `json:"title"`
	Text          flexString `json:"text"`
	PublishedDate flexString `json:"publishedDate"`
	Author        flexString `json:"author"`
	Image         flexString `json:"image"`
}

func normalizeExa(item sources.RawItem, ctx Context) *models.Mention {
	var raw exaResult
	if !decode(item, &raw) {
		return nil
	}

	url := raw.URL.String()
	id := string(raw.ID)
	if strings.TrimSpace(id) == "" {
		id = url
	}
	if id == "" {
		return nil
	}

	m := newMention(id, models.PlatformWeb, models.SourceExa, ctx)
	m.URL = url
	m.Domain = Domain(url)
	m.Title = StripHTML(raw.Title.String())
	m.Content = StripHTML(raw.Text.String())
	if m.Title == "" {
		m.Title = DefaultTitle(m.Content)
	}
	m.Author = raw.Author.String()
	m.AuthorUsername = m.Author
	m.CreatedAt, m.DateEstimated = coerceTimestamp(ctx.Now, 0, raw.PublishedDate.String())
	m.ContentType = ClassifyWebContent(url, raw.Title.String(), raw.Text.String())
	m.Thumbnail = raw.Image.String()
	m.SearchQuery = item.Query
	m.WordCount = CountWords(m.Content)
	m.HasContactInfo = HasContactInfo(m.Content)
	m.MentionContext = MentionContext(m.Content, ctx.Brand)

	return m
}
