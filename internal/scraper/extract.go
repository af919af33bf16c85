package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// The site is class-obfuscated, so most fields are reached through
// data-testid hooks; the description has none and keeps its class chain.
const descriptionSelector = "div._1SQXlCXyLucI91Ny_sWM9q > p._1zc788KtPN0EmaoSx7RUA_"

const descriptionScript = `(function() {
	var el = document.querySelector("div._1SQXlCXyLucI91Ny_sWM9q > p._1zc788KtPN0EmaoSx7RUA_");
	return el ? el.textContent.trim() : '';
})()`

const infoBlockScript = `(function() {
	var info = document.querySelector('div[aria-label*="Release Year"]');
	return info ? (info.getAttribute('aria-label') || '') : '';
})()`

const languagePickerScript = `(function() {
	var langContainer = document.querySelector('div[data-testid="language-picker"]');
	if (!langContainer) return '';
	var spans = langContainer.querySelectorAll('span.BUTTON3_SEMIBOLD');
	return Array.from(spans).map(function(s) { return s.textContent.trim(); }).join('|||');
})()`

const genresScript = `(function() {
	var container = document.querySelector('div[data-testid="tagFlipperEnriched"]') ||
		document.querySelector('div[data-testid="tags-container"]');
	if (!container) return [];
	return Array.from(container.querySelectorAll('span')).map(function(s) { return s.textContent.trim(); });
})()`

const imageURLScript = `(function() {
	var imgEl = document.querySelector('div[data-testid="autoplay-trailer-image-container"] img');
	return imgEl ? (imgEl.src || '') : '';
})()`

// movieInfo is the parsed form of a movie detail's aria-label info block.
type movieInfo struct {
	Year     string
	Rating   string
	Duration string
	Language string
}

// showInfo is the parsed form of a show detail's aria-label info block.
type showInfo struct {
	Year   string
	Rating string
	Season string
}

// parseMovieInfo splits an aria-label like
// "Release Year: 2024, Age Rating: U/A 16+, 2 hours 10 minutes, Language: Hindi"
// into its fields. Duration is always rendered, even when no segment named
// one, so callers can distinguish "parsed, zero length" from "unavailable".
func parseMovieInfo(raw string) movieInfo {
	var info movieInfo
	minutes := 0
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "Release Year:"):
			info.Year = strings.TrimSpace(strings.TrimPrefix(part, "Release Year:"))
		case strings.HasPrefix(part, "Age Rating:"):
			info.Rating = strings.TrimSpace(strings.TrimPrefix(part, "Age Rating:"))
		case strings.HasSuffix(part, "hours") || strings.HasSuffix(part, "minutes"):
			minutes += durationMinutes(part)
		case strings.HasPrefix(part, "Language:"):
			info.Language = strings.TrimSpace(strings.TrimPrefix(part, "Language:"))
		}
	}
	info.Duration = fmt.Sprintf("%d Minutes", minutes)
	return info
}

// parseShowInfo is the show-side counterpart; shows carry a season label
// where movies carry a duration.
func parseShowInfo(raw string) showInfo {
	var info showInfo
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "Release Year:"):
			info.Year = strings.TrimSpace(strings.TrimPrefix(part, "Release Year:"))
		case strings.HasPrefix(part, "Age Rating:"):
			info.Rating = strings.TrimSpace(strings.TrimPrefix(part, "Age Rating:"))
		case strings.HasSuffix(part, "Seasons") || strings.HasSuffix(part, "Season"):
			info.Season = part
		}
	}
	return info
}

// durationMinutes sums the optional hour and minute components of a segment
// like "2 hours 10 minutes". Unparsable numeric text contributes 0.
func durationMinutes(segment string) int {
	total := 0
	hasHours := strings.Contains(segment, "hours")
	hasMinutes := strings.Contains(segment, "minutes")
	switch {
	case hasHours && hasMinutes:
		parts := strings.SplitN(segment, "hours", 2)
		if h, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			total += h * 60
		}
		minutePart := strings.TrimSpace(strings.ReplaceAll(parts[1], "minutes", ""))
		if m, err := strconv.Atoi(minutePart); err == nil {
			total += m
		}
	case hasHours:
		if h, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(segment, "hours", ""))); err == nil {
			total += h * 60
		}
	case hasMinutes:
		if m, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(segment, "minutes", ""))); err == nil {
			total += m
		}
	}
	return total
}

// titleFromLabel reads a card title from its aria-label: the text before the
// first comma, trimmed.
func titleFromLabel(label string) string {
	title, _, _ := strings.Cut(label, ",")
	return strings.TrimSpace(title)
}

// dedupeJoin drops blanks and duplicates (first-seen order kept) and joins
// the rest with ", ".
func dedupeJoin(values []string) string {
	seen := make(map[string]struct{}, len(values))
	var kept []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		kept = append(kept, v)
	}
	return strings.Join(kept, ", ")
}

// Extractor turns an open detail view into a best-effort record. Every
// field has its own strategy chain; a broken selector for one field never
// blocks the others.
type Extractor struct {
	sess   Session
	logger *zap.Logger
}

// NewExtractor builds an Extractor over a session.
func NewExtractor(sess Session, logger *zap.Logger) *Extractor {
	return &Extractor{sess: sess, logger: logger}
}

// description tries the scoped structural query first and falls back to an
// equivalent script evaluation of the same shape.
func (e *Extractor) description(ctx context.Context) string {
	if text, err := e.sess.Text(ctx, descriptionSelector); err == nil {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}

	var out string
	if err := e.sess.Evaluate(ctx, descriptionScript, &out); err != nil {
		e.logger.Warn("Description unavailable", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}

func (e *Extractor) infoLabel(ctx context.Context) (string, error) {
	var raw string
	if err := e.sess.Evaluate(ctx, infoBlockScript, &raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (e *Extractor) movieInfo(ctx context.Context) movieInfo {
	raw, err := e.infoLabel(ctx)
	if err != nil {
		e.logger.Warn("Movie info block unavailable", zap.Error(err))
		return movieInfo{}
	}
	return parseMovieInfo(raw)
}

func (e *Extractor) showInfo(ctx context.Context) showInfo {
	raw, err := e.infoLabel(ctx)
	if err != nil {
		e.logger.Warn("Show info block unavailable", zap.Error(err))
		return showInfo{}
	}
	return parseShowInfo(raw)
}

// language prefers the language-picker widget. More than one option means
// the title has several audio tracks and all labels are joined; with at
// most one option the info block's Language segment wins, then the single
// picker option.
func (e *Extractor) language(ctx context.Context) string {
	var joined string
	if err := e.sess.Evaluate(ctx, languagePickerScript, &joined); err != nil {
		e.logger.Warn("Language picker unavailable", zap.Error(err))
		return ""
	}

	var options []string
	for _, opt := range strings.Split(joined, "|||") {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) > 1 {
		return strings.Join(options, ", ")
	}

	if raw, err := e.infoLabel(ctx); err == nil {
		if lang := parseMovieInfo(raw).Language; lang != "" {
			return lang
		}
	}

	if len(options) == 1 {
		return options[0]
	}
	return ""
}

func (e *Extractor) genres(ctx context.Context) string {
	var labels []string
	if err := e.sess.Evaluate(ctx, genresScript, &labels); err != nil {
		e.logger.Error("Error collecting genre labels", zap.Error(err))
		return ""
	}
	return dedupeJoin(labels)
}

func (e *Extractor) imageURL(ctx context.Context) string {
	var out string
	if err := e.sess.Evaluate(ctx, imageURLScript, &out); err != nil {
		e.logger.Error("Error extracting image URL", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}
