package convert

import (
	"fmt"

	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

var mediaTypes = map[string]string{
	"photo":        "image",
	"video":        "video",
	"animated_gif": "gifv",
}

// Media converts one media entity into a Mastodon attachment. Videos and
// GIFs get the highest-bitrate MP4 variant as their URL; the thumbnail
// stays as the preview.
func Media(media *twitter.MediaEntity) mastodon.Attachment {
	mediaType, ok := mediaTypes[media.Type]
	if !ok {
		mediaType = "unknown"
	}

	attachment := mastodon.Attachment{
		ID:          media.IDStr,
		Type:        mediaType,
		URL:         media.MediaURLHTTPS,
		PreviewURL:  media.MediaURLHTTPS,
		Description: media.ExtAltText,
	}
	if info := media.OriginalInfo; info != nil && info.Height > 0 {
		attachment.Meta = &mastodon.AttachmentMeta{
			Original: mastodon.AttachmentSize{
				Width:  info.Width,
				Height: info.Height,
				Size:   fmt.Sprintf("%dx%d", info.Width, info.Height),
				Aspect: float64(info.Width) / float64(info.Height),
			},
		}
	}

	if (media.Type == "video" || media.Type == "animated_gif") && media.VideoInfo != nil {
		var best *twitter.VideoVariant
		for i := range media.VideoInfo.Variants {
			v := &media.VideoInfo.Variants[i]
			if v.ContentType != "video/mp4" {
				continue
			}
			if best == nil || v.Bitrate > best.Bitrate {
				best = v
			}
		}
		if best != nil {
			attachment.URL = best.URL
		}
	}

	return attachment
}
