package handlers

import (
	"fmt"
	"io"
	"net/http"
)

const frameImageSVG = `<svg width="1200" height="630" viewBox="0 0 1200 630" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="bg" x1="0%" y1="0%" x2="100%" y2="100%">
      <stop offset="0%" style="stop-color:#3B82F6;stop-opacity:1" />
      <stop offset="100%" style="stop-color:#1E40AF;stop-opacity:1" />
    </linearGradient>
  </defs>
  <rect width="1200" height="630" fill="url(#bg)"/>
  <g transform="translate(100, 100)">
    <rect x="0" y="0" width="120" height="120" rx="20" fill="white" opacity="0.9"/>
    <text x="60" y="70" font-family="Arial, sans-serif" font-size="60" font-weight="bold" text-anchor="middle" fill="#3B82F6">F</text>
    <text x="160" y="60" font-family="Arial, sans-serif" font-size="48" font-weight="bold" fill="white">Flicks</text>
    <text x="160" y="100" font-family="Arial, sans-serif" font-size="24" fill="white" opacity="0.9">Base &amp; Farcaster Mini App Asset Creator</text>
    <g transform="translate(0, 150)">
      <text x="0" y="0" font-family="Arial, sans-serif" font-size="20" fill="white" opacity="0.8">Icons, hero banners, social previews, splash screens</text>
      <text x="0" y="35" font-family="Arial, sans-serif" font-size="20" fill="white" opacity="0.8">Optimized for Base &amp; Farcaster</text>
      <text x="0" y="70" font-family="Arial, sans-serif" font-size="20" fill="white" opacity="0.8">One prompt, four manifest-ready images</text>
    </g>
    <rect x="0" y="280" width="300" height="60" rx="30" fill="white" opacity="0.2"/>
    <text x="150" y="320" font-family="Arial, sans-serif" font-size="24" font-weight="bold" text-anchor="middle" fill="white">Start Creating Assets</text>
  </g>
  <circle cx="1000" cy="100" r="50" fill="white" opacity="0.1"/>
  <circle cx="1100" cy="200" r="30" fill="white" opacity="0.1"/>
  <circle cx="1050" cy="400" r="40" fill="white" opacity="0.1"/>
</svg>`

func (a *App) frameHTML(title, subtitle, button1 string) string {
	base := a.Config.AppBaseURL
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
  <head>
    <meta property="fc:frame" content="vNext" />
    <meta property="fc:frame:image" content="%s/api/frame/image" />
    <meta property="fc:frame:button:1" content="%s" />
    <meta property="fc:frame:button:2" content="Learn More" />
    <meta property="fc:frame:post_url" content="%s/api/frame" />
  </head>
  <body>
    <h1>%s</h1>
    <p>%s</p>
  </body>
</html>`, base, button1, base, title, subtitle)
}

// Frame serves the initial frame markup embedded in Farcaster casts.
func (a *App) Frame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = io.WriteString(w, a.frameHTML("Flicks", "Create visual assets for Base and Farcaster mini apps", "Open Flicks"))
}

// FrameAction handles a signed button press. The message is verified against
// the hub before any button routing happens.
func (a *App) FrameAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	action, err := a.Frames.Verify(r.Context(), body)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch action.ButtonIndex {
	case 1:
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, a.frameHTML("Flicks - Asset Creator", "Create visual assets for your Base and Farcaster mini apps!", "Create Assets"))
	case 2:
		http.Redirect(w, r, a.Config.AppBaseURL+"/", http.StatusFound)
	default:
		http.Error(w, "Invalid button", http.StatusBadRequest)
	}
}

// FrameImage serves the static frame preview. The image never changes, so
// clients may cache it for an hour.
func (a *App) FrameImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.WriteString(w, frameImageSVG)
}
