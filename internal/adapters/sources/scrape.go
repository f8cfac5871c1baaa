package sources

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"abuse-rec/internal/core/record"
	perrors "abuse-rec/internal/platform/errors"
	"abuse-rec/internal/platform/logx"
)

// DefaultScrapeBase is the whois.com lookup page.
const DefaultScrapeBase = "https://www.whois.com/whois/"

// Scrape reads the whois.com result page for a domain.
type Scrape struct {
	opts HTTPOptions
}

// NewScrape returns the scraped source.
func NewScrape(opts HTTPOptions) *Scrape {
	return &Scrape{opts: opts.withDefaults(DefaultScrapeBase)}
}

func (s *Scrape) ID() record.SourceID { return record.SourceScraped }

// Fetch downloads and parses the page. A page without data blocks is a
// ParseError.
func (s *Scrape) Fetch(ctx context.Context, domain string) (record.SourceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	u, err := url.Parse(s.opts.BaseURL)
	if err != nil {
		return record.SourceRecord{}, perrors.NewConnectionError("request", s.opts.BaseURL, "", err)
	}
	u.Path = path.Join("/", u.Path, url.PathEscape(domain))

	body, err := httpGet(ctx, s.opts, record.SourceScraped, u.String(), "text/html,application/xhtml+xml")
	if err != nil {
		return record.SourceRecord{}, err
	}
	return parseWhoisPage(body, domain)
}

// whoisPage holds the label→value rows of each block, labels lower-cased
// without the trailing colon.
type whoisPage struct {
	domainInfo map[string]string
	registrar  map[string]string
	registrant map[string]string
	technical  map[string]string
	related    []string
}

func parseWhoisPage(body []byte, domain string) (record.SourceRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return record.SourceRecord{}, perrors.NewParseError(string(record.SourceScraped), "HTML inválido: "+err.Error(), sample(body))
	}

	blocks := doc.Find(".df-block")
	if blocks.Length() == 0 {
		return record.SourceRecord{}, perrors.NewParseError(string(record.SourceScraped), "la página no contiene bloques de datos", sample(body))
	}

	page := whoisPage{}
	blocks.Each(func(_ int, block *goquery.Selection) {
		heading := strings.TrimSpace(block.Find(".df-heading").Text())
		switch {
		case strings.Contains(heading, "Domain Information"):
			page.domainInfo = parseBlock(block)
		case strings.Contains(heading, "Registrar Information"):
			page.registrar = parseBlock(block)
		case strings.Contains(heading, "Registrant Contact"):
			page.registrant = parseBlock(block)
		case strings.Contains(heading, "Technical Contact"):
			page.technical = parseBlock(block)
		}
	})

	doc.Find(".section-related ul li a").Each(func(_ int, a *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(a.Text()))
		if name != "" && name != domain {
			page.related = record.AddUnique(page.related, name)
		}
	})

	logx.Trace("Página whois.com interpretada", logx.Fields{"domain": domain, "blocks": blocks.Length(), "related": len(page.related)})
	return page.toRecord(domain), nil
}

func parseBlock(block *goquery.Selection) map[string]string {
	data := map[string]string{}
	block.Find(".df-row").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(strings.Replace(row.Find(".df-label").Text(), ":", "", 1)))
		value := row.Find(".df-value")
		value.Find("br").ReplaceWithHtml("\n")

		var lines []string
		for _, line := range strings.Split(value.Text(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if label != "" && len(lines) > 0 {
			data[label] = strings.Join(lines, "\n")
		}
	})
	return data
}

func (p whoisPage) toRecord(domain string) record.SourceRecord {
	rec := record.New(domain, record.SourceScraped)

	rec.Registrar = record.Str(p.registrar["registrar"])
	rec.Created = normalizeDate(p.domainInfo["registered on"])
	rec.Expires = normalizeDate(p.domainInfo["expires on"])
	rec.Updated = normalizeDate(p.domainInfo["updated on"])

	for _, ns := range splitLines(p.domainInfo["name servers"]) {
		rec.NameServers = record.AddNameServer(rec.NameServers, ns)
	}
	for _, status := range splitLines(p.domainInfo["status"]) {
		rec.Status = record.AddStatus(rec.Status, status)
	}

	details := record.RegistrarDetails{
		Name:       p.registrar["registrar"],
		IANAID:     p.registrar["iana id"],
		AbuseEmail: p.registrar["abuse email"],
		AbusePhone: p.registrar["abuse phone"],
		Website:    p.registrar["website"],
	}
	if !details.IsEmpty() {
		rec.RegistrarDetails = &details
	}
	rec.Contacts.Abuse = record.AbuseContact{Email: details.AbuseEmail, Phone: details.AbusePhone}
	rec.Contacts.Registrant = pick(p.registrant, "name", "organization", "country", "email")
	rec.Contacts.Technical = pick(p.technical, "name", "organization", "email")

	if len(p.related) > 0 {
		rec.RelatedDomains = p.related
	}
	return rec
}

// normalizeDate renders parseable dates as RFC 3339 in UTC and keeps
// anything else verbatim.
func normalizeDate(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return &value
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func pick(src map[string]string, keys ...string) map[string]string {
	var out map[string]string
	for _, k := range keys {
		v := strings.TrimSpace(src[k])
		if v == "" {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}
