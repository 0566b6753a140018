package publisher

import (
	"fmt"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/store"
)

// twitterCharLimit is the hard payload limit enforced before transmission.
const twitterCharLimit = 280

// FormatPayload translates a generic post into the platform-specific
// request body. Unsupported platforms are a hard error.
func FormatPayload(post *store.ScheduledPost) (map[string]any, error) {
	switch post.Platform {
	case store.PlatformTwitter:
		return formatTwitter(post), nil
	case store.PlatformInstagram:
		return formatInstagram(post), nil
	case store.PlatformLinkedIn:
		return formatLinkedIn(post), nil
	case store.PlatformSpotify:
		return formatSpotify(post), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, post.Platform)
	}
}

// TruncateWithEllipsis shortens text to at most limit runes, replacing the
// tail with "..." so the result lands exactly on the limit.
func TruncateWithEllipsis(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}

func formatTwitter(post *store.ScheduledPost) map[string]any {
	return map[string]any{
		"text":           TruncateWithEllipsis(post.Content, twitterCharLimit),
		"media":          metadataList(post.Metadata, "media_urls"),
		"reply_settings": "everyone",
	}
}

func formatInstagram(post *store.ScheduledPost) map[string]any {
	media := metadataList(post.Metadata, "media_urls")
	mediaType := "TEXT"
	var mediaURL any
	if len(media) > 0 {
		mediaType = "CAROUSEL_ALBUM"
		mediaURL = media[0]
	}
	return map[string]any{
		"caption":    post.Content,
		"media_type": mediaType,
		"media_url":  mediaURL,
	}
}

func formatLinkedIn(post *store.ScheduledPost) map[string]any {
	return map[string]any{
		"author":         "urn:li:person:mock_user",
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary": map[string]any{
					"text": post.Content,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
}

func formatSpotify(post *store.ScheduledPost) map[string]any {
	language := "en"
	if lang, ok := post.Metadata["language"].(string); ok && lang != "" {
		language = lang
	}
	durationSec := 30.0
	if d, ok := post.Metadata["duration"].(float64); ok && d > 0 {
		durationSec = d
	}
	return map[string]any{
		"name":              fmt.Sprintf("Episode: %s", TruncateWithEllipsis(post.Content, 53)),
		"description":       post.Content,
		"audio_preview_url": post.Metadata["audio_url"],
		"duration_ms":       int(durationSec * 1000),
		"language":          language,
	}
}

func metadataList(metadata map[string]any, key string) []any {
	if metadata == nil {
		return []any{}
	}
	if list, ok := metadata[key].([]any); ok {
		return list
	}
	return []any{}
}
