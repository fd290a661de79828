package content

import (
	"fmt"

	"go-campaign-site/internal/visuals"
)

// 查询文本。投影直接产出仓库的线上形态（_id 由解码边界改名为 id）。
const (
	imageProjection = `{"asset": asset._ref, alt, "aspectRatio": asset->metadata.dimensions.aspectRatio}`

	postProjection = `{_id, title, "slug": slug.current, publishedAt, excerpt, body, tags, author,
  "image": mainImage` + imageProjection + `}`

	qPostsAll = `*[_type == "post" && defined(slug.current)] | order(publishedAt desc)` + postProjection

	qPostBySlug = `*[_type == "post" && slug.current == $slug][0]` + postProjection

	qEvents = `*[_type == "event"] | order(startsAt asc){_id, title, "slug": slug.current, startsAt, endsAt,
  allDay, location, description, tags, rsvpUrl, "image": image` + imageProjection + `}`

	qMedia = `*[_type == "mediaLink"] | order(publishedAt desc){_id, title, outlet, url, kind, publishedAt, summary,
  "image": image` + imageProjection + `}`

	qFundraising = `*[_type == "fundraisingLink"] | order(priority desc){_id, label, url, description, priority}`

	qSettings = `*[_type == "siteSettings"][0]{title, tagline, description, candidateName,
  hero{heading, subheading, actions[]{label, url}, "image": image` + imageProjection + `},
  socialLinks[]{platform, url, handle}, headerNav[]{label, href, page}, focusItems[]{title, text, icon},
  sectionCards[]{title, text, href, page, "image": image` + imageProjection + `},
  donateUrl, contactEmail, footerText, pageVisibility}`

	qAbout = `*[_type == "about"][0]{heading, intro, bio, "portrait": portrait` + imageProjection + `,
  priorities[]{"slug": slug.current, title, summary, icon, body, links[]{label, url}}}`
)

// qPageVisual 在查询侧把每个维度 coalesce 为维度默认值。
var qPageVisual = fmt.Sprintf(`*[_type == "pageVisual" && page == $page][0]{
  "background": coalesce(background, %q),
  "container": coalesce(container, %q),
  "tone": coalesce(tone, %q),
  "motion": coalesce(motion, %q),
  "textLinkAnimation": coalesce(textLinkAnimation, %q),
  "pageBackgroundAnimation": coalesce(pageBackgroundAnimation, %q),
  "scrollReveal": coalesce(scrollReveal, %q)}`,
	visuals.AxisDefaults.Background,
	visuals.AxisDefaults.Container,
	visuals.AxisDefaults.Tone,
	visuals.AxisDefaults.Motion,
	visuals.AxisDefaults.TextLinkAnimation,
	visuals.AxisDefaults.PageBackgroundAnimation,
	visuals.AxisDefaults.ScrollReveal,
)
