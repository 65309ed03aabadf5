package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/service"
)

const (
	// DefaultBaseURL is the MyScheme search API endpoint
	DefaultBaseURL = "https://api.myscheme.gov.in/search/v4/schemes"
	// DefaultPageSize matches the page size the MyScheme frontend requests
	DefaultPageSize = 20
	// DefaultDelay is the politeness delay between page requests
	DefaultDelay = time.Second

	schemeLinkBase = "https://www.myscheme.gov.in/schemes/"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Delay    time.Duration
	// MaxPages caps the walk when positive; zero walks the whole catalog.
	MaxPages int
}

// Scraper walks the MyScheme catalog page by page. It implements
// service.SchemeFetcherInterface.
type Scraper struct {
	cfg Config
}

func New(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	return &Scraper{cfg: cfg}
}

// searchResponse mirrors the subset of the MyScheme payload the catalog
// needs.
type searchResponse struct {
	Data struct {
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
		Hits struct {
			Items []searchItem `json:"items"`
		} `json:"hits"`
	} `json:"data"`
}

type searchItem struct {
	Fields searchFields `json:"fields"`
}

type searchFields struct {
	Slug              string     `json:"slug"`
	SchemeName        string     `json:"schemeName"`
	BriefDescription  string     `json:"briefDescription"`
	SchemeCategory    stringList `json:"schemeCategory"`
	BeneficiaryState  stringList `json:"beneficiaryState"`
	NodalMinistryName string     `json:"nodalMinistryName"`
}

// stringList accepts either a JSON string or an array of strings; the
// upstream payload uses both shapes for the same fields.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one == "" {
		*l = nil
		return nil
	}
	*l = stringList{one}
	return nil
}

// Fetch walks the catalog from offset zero until the reported total is
// reached, the page cap is hit, or a page fails. A page failure aborts the
// walk with the error; there are no retries.
func (s *Scraper) Fetch(ctx context.Context, fn func(page service.ScrapePage) error) error {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: s.cfg.Delay}); err != nil {
		return fmt.Errorf("failed to configure rate limit: %w", err)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("accept", "application/json, text/plain, */*")
		r.Headers.Set("accept-language", "en-US,en;q=0.9")
		r.Headers.Set("origin", "https://www.myscheme.gov.in")
		r.Headers.Set("referer", "https://www.myscheme.gov.in/")
		if s.cfg.APIKey != "" {
			r.Headers.Set("x-api-key", s.cfg.APIKey)
		}
	})

	var (
		walkErr   error
		total     int
		lastCount int
	)

	c.OnResponse(func(r *colly.Response) {
		var payload searchResponse
		if err := json.Unmarshal(r.Body, &payload); err != nil {
			walkErr = fmt.Errorf("failed to parse catalog page: %w", err)
			return
		}

		total = payload.Data.Summary.Total
		lastCount = len(payload.Data.Hits.Items)
		if lastCount == 0 {
			return
		}

		from := 0
		if v := r.Request.URL.Query().Get("from"); v != "" {
			from, _ = strconv.Atoi(v)
		}

		walkErr = fn(service.ScrapePage{
			From:    from,
			Total:   total,
			Schemes: s.convertItems(payload.Data.Hits.Items),
		})
	})

	for from, pages := 0, 0; ; from, pages = from+s.cfg.PageSize, pages+1 {
		if s.cfg.MaxPages > 0 && pages >= s.cfg.MaxPages {
			return nil
		}

		if err := c.Visit(s.pageURL(from)); err != nil {
			return fmt.Errorf("failed to fetch catalog page at offset %d: %w", from, err)
		}
		if walkErr != nil {
			return walkErr
		}

		// An empty page ends the walk even if the reported total says
		// otherwise.
		if lastCount == 0 || from+s.cfg.PageSize >= total {
			return nil
		}
	}
}

func (s *Scraper) pageURL(from int) string {
	q := url.Values{}
	q.Set("lang", "en")
	q.Set("keyword", "")
	q.Set("from", strconv.Itoa(from))
	q.Set("size", strconv.Itoa(s.cfg.PageSize))
	return s.cfg.BaseURL + "?" + q.Encode()
}

// convertItems maps the raw payload into scheme records. Items without a
// slug are dropped: the slug is the upsert key and the public link.
func (s *Scraper) convertItems(items []searchItem) []*domain.SchemeRecord {
	now := time.Now().UTC()
	records := make([]*domain.SchemeRecord, 0, len(items))
	for _, item := range items {
		f := item.Fields
		if f.Slug == "" {
			continue
		}

		department := f.NodalMinistryName
		if department == "" {
			department = strings.Join(f.BeneficiaryState, ", ")
		}

		records = append(records, domain.NewSchemeRecord(
			uuid.NewString(), f.Slug,
			f.SchemeName, f.BriefDescription,
			strings.Join(f.SchemeCategory, ", "),
			strings.Join(f.BeneficiaryState, ", "),
			department,
			schemeLinkBase+f.Slug,
			now, now,
		))
	}
	return records
}
