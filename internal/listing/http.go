package listing

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/internal/resilience"
)

const (
	defaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultProfileBase = "https://www.linkedin.com"
	defaultTimeout     = 30 * time.Second
	maxPageBytes       = 8 << 20
)

// HTTPSource fetches listing pages over HTTP and parses profile cards.
type HTTPSource struct {
	client      *http.Client
	userAgent   string
	cookie      string
	profileBase string
	pacer       resilience.Pacer
	retry       resilience.RetryConfig
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(s *HTTPSource) { s.client = c } }

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(s *HTTPSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithCookie sends an authenticated session cookie header.
func WithCookie(c string) Option { return func(s *HTTPSource) { s.cookie = c } }

// WithProfileBase sets the origin prefixed to relative profile links.
func WithProfileBase(base string) Option {
	return func(s *HTTPSource) {
		if base != "" {
			s.profileBase = strings.TrimRight(base, "/")
		}
	}
}

// WithPageDelay sets the pause between page requests.
func WithPageDelay(p resilience.Pacer) Option { return func(s *HTTPSource) { s.pacer = p } }

// WithRetry overrides the retry policy for page requests.
func WithRetry(cfg resilience.RetryConfig) Option { return func(s *HTTPSource) { s.retry = cfg } }

// NewHTTPSource creates an HTTPSource. Pages are paced 8 to 15 seconds apart
// unless overridden.
func NewHTTPSource(opts ...Option) *HTTPSource {
	s := &HTTPSource{
		client:      &http.Client{Timeout: defaultTimeout},
		userAgent:   defaultUserAgent,
		profileBase: defaultProfileBase,
		pacer:       resilience.Pacer{Min: 8 * time.Second, Max: 15 * time.Second},
		retry:       resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch walks pages 1..maxPages and stops at the first page with no cards.
// On a page failure it returns the candidates gathered so far with the error.
func (s *HTTPSource) Fetch(ctx context.Context, listingURL string, maxPages int) ([]model.Candidate, error) {
	var out []model.Candidate
	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			if err := s.pacer.Wait(ctx); err != nil {
				return out, eris.Wrap(err, "listing: wait between pages")
			}
		}

		pageURL := PageURL(listingURL, page)
		body, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (string, error) {
			return s.get(ctx, pageURL)
		})
		if err != nil {
			return out, eris.Wrapf(err, "listing: fetch page %d", page)
		}

		cards, found, err := ParseCards(strings.NewReader(body), s.profileBase)
		if err != nil {
			return out, eris.Wrapf(err, "listing: parse page %d", page)
		}
		if !found {
			zap.L().Info("listing: no cards on page, stopping", zap.Int("page", page))
			break
		}
		zap.L().Info("listing: page parsed", zap.Int("page", page), zap.Int("cards", len(cards)))
		out = append(out, cards...)
	}
	return out, nil
}

func (s *HTTPSource) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "listing: create request")
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "listing: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", eris.Wrap(err, "listing: read body")
	}
	if err := resilience.CheckStatus("listing", resp.StatusCode, body); err != nil {
		return "", err
	}
	return string(body), nil
}

// ParseCards extracts candidates from one listing page. found reports whether
// any card element matched, even if every card was too short to keep.
func ParseCards(r io.Reader, profileBase string) (cards []model.Candidate, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, false, eris.Wrap(err, "listing: parse html")
	}

	var sel *goquery.Selection
	for _, css := range cardSelectors {
		sel = doc.Find(css)
		if sel.Length() > 0 {
			break
		}
	}
	if sel == nil || sel.Length() == 0 {
		return nil, false, nil
	}

	sel.Each(func(_ int, card *goquery.Selection) {
		text := cardText(card)
		if len([]rune(text)) <= MinCardText {
			return
		}
		cards = append(cards, model.Candidate{
			RawText:    text,
			ProfileURL: profileLink(card, profileBase),
		})
	})
	return cards, true, nil
}

// cardText joins the card's text nodes in document order, one per line.
func cardText(card *goquery.Selection) string {
	var lines []string
	collectText(card, &lines)
	return strings.Join(lines, "\n")
}

func collectText(s *goquery.Selection, lines *[]string) {
	s.Contents().Each(func(_ int, n *goquery.Selection) {
		switch goquery.NodeName(n) {
		case "#text":
			if t := strings.Join(strings.Fields(n.Text()), " "); t != "" {
				*lines = append(*lines, t)
			}
		case "script", "style", "#comment":
		default:
			collectText(n, lines)
		}
	})
}

func profileLink(card *goquery.Selection, base string) string {
	for _, css := range linkSelectors {
		href, ok := card.Find(css).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		return absoluteProfileURL(strings.TrimSpace(href), base)
	}
	return ""
}

// absoluteProfileURL resolves href against base and drops query and fragment.
func absoluteProfileURL(href, base string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return ""
		}
		u = b.ResolveReference(u)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
