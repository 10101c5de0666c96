package huace

import (
	"net/url"
	"strings"
)

// fallbackSVG is shown in place of photos that fail to load.
const fallbackSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="800" height="600" viewBox="0 0 800 600">` +
	`<defs><linearGradient id="g" x1="0" y1="0" x2="1" y2="1">` +
	`<stop offset="0%" stop-color="#f5e9d6"/><stop offset="100%" stop-color="#e4d1b8"/>` +
	`</linearGradient></defs>` +
	`<rect width="800" height="600" fill="url(#g)"/>` +
	`<g fill="#8b7a67" font-family="Noto Sans SC, sans-serif" font-size="28" text-anchor="middle">` +
	`<text x="400" y="300">图片加载失败</text>` +
	`</g></svg>`

// FallbackImage is a data URI for the placeholder graphic.
var FallbackImage = "data:image/svg+xml;utf8," + strings.ReplaceAll(url.QueryEscape(fallbackSVG), "+", "%20")
