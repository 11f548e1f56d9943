package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ellavondegurechaff/woguri/woguri/database/models"
)

// LeaderboardImageService renders the weekly board as a PNG through a
// headless browser. Rendering is best-effort: commands fall back to a
// plain embed when chromedp is unavailable.
type LeaderboardImageService struct {
	logger    *slog.Logger
	available bool
}

type leaderboardTemplateData struct {
	Title     string
	Subtitle  string
	Timestamp string
	Entries   []*models.LeaderboardEntry
}

func NewLeaderboardImageService() *LeaderboardImageService {
	s := &LeaderboardImageService{
		logger: slog.With(slog.String("service", "leaderboard_image")),
	}

	// Probe once at construction instead of discovering a missing chrome
	// on the first leaderboard of the week.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	chromedpCtx, cancelChrome := chromedp.NewContext(ctx)
	defer cancelChrome()

	if err := chromedp.Run(chromedpCtx, chromedp.Navigate("data:text/html,<html><body>probe</body></html>")); err != nil {
		s.logger.Warn("chromedp not available, leaderboard images disabled",
			slog.String("error", err.Error()))
	} else {
		s.available = true
	}

	return s
}

// Available reports whether image rendering can be attempted at all.
func (s *LeaderboardImageService) Available() bool {
	return s.available
}

// GenerateWeeklyImage renders the top entries of a ranked weekly board.
func (s *LeaderboardImageService) GenerateWeeklyImage(ctx context.Context, title, subtitle string, entries []*models.LeaderboardEntry) ([]byte, error) {
	if !s.available {
		return nil, fmt.Errorf("image rendering unavailable")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no leaderboard entries provided")
	}

	start := time.Now()
	htmlContent, err := s.renderHTML(leaderboardTemplateData{
		Title:     title,
		Subtitle:  subtitle,
		Timestamp: time.Now().Format("15:04 MST"),
		Entries:   entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	chromedpCtx, cancel := chromedp.NewContext(ctx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()
	chromedpCtx, cancelTimeout := context.WithTimeout(chromedpCtx, 15*time.Second)
	defer cancelTimeout()

	var imageBytes []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("data:text/html,"+htmlContent),
		chromedp.WaitVisible("#leaderboard", chromedp.ByID),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Screenshot("#leaderboard", &imageBytes, chromedp.ByID),
	)
	if err != nil {
		s.logger.Error("Failed to generate leaderboard image",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	s.logger.Info("Leaderboard image generated",
		slog.Int("image_size", len(imageBytes)),
		slog.Duration("took", time.Since(start)))
	return imageBytes, nil
}

func (s *LeaderboardImageService) renderHTML(data leaderboardTemplateData) (string, error) {
	tmpl, err := template.New("leaderboard").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).Parse(leaderboardHTML)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	// data: URLs treat # as a fragment start and newlines are noise.
	htmlContent := strings.ReplaceAll(buf.String(), "#", "%23")
	htmlContent = strings.ReplaceAll(htmlContent, "\n", "")
	return htmlContent, nil
}

const leaderboardHTML = `<!DOCTYPE html>
<html>
<head>
<style>
  body { margin: 0; background: #1e1f26; font-family: "Segoe UI", sans-serif; }
  #leaderboard { width: 480px; padding: 24px; background: linear-gradient(160deg, #23243a, #15161c); color: #f0f0f0; border-radius: 12px; }
  h1 { font-size: 22px; margin: 0 0 4px 0; color: #8fb4ff; }
  .subtitle { font-size: 13px; color: #9a9cb0; margin-bottom: 16px; }
  .row { display: flex; align-items: center; padding: 8px 10px; border-radius: 8px; margin-bottom: 6px; background: rgba(255,255,255,0.04); }
  .row.first { background: rgba(255,215,0,0.12); }
  .rank { width: 34px; font-weight: bold; color: #8fb4ff; }
  .name { flex: 1; font-weight: 600; }
  .score { width: 70px; text-align: right; color: #ffd166; }
  .games { width: 80px; text-align: right; font-size: 12px; color: #9a9cb0; }
  .footer { margin-top: 12px; font-size: 11px; color: #5c5e70; text-align: right; }
</style>
</head>
<body>
<div id="leaderboard">
  <h1>{{.Title}}</h1>
  <div class="subtitle">{{.Subtitle}}</div>
  {{range $i, $e := .Entries}}
  <div class="row{{if eq $i 0}} first{{end}}">
    <div class="rank">{{add $i 1}}</div>
    <div class="name">{{$e.Username}}</div>
    <div class="score">{{printf "%.0f" $e.Score}} pts</div>
    <div class="games">{{$e.GamesPlayed}} games</div>
  </div>
  {{end}}
  <div class="footer">generated {{.Timestamp}}</div>
</div>
</body>
</html>`
