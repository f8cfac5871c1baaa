// Package hosting classifies where a domain lives: what kind of TLD it has,
// whether it sits on a free hosting platform, whether it is a subdomain of
// someone else's name, and how risky that combination looks.
package hosting

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"abuse-rec/internal/platform/logx"
	"abuse-rec/internal/platform/netutil"
)

// TLDClass buckets a domain's suffix.
type TLDClass string

const (
	TLDPaid          TLDClass = "paid"
	TLDFreeOrUnknown TLDClass = "freeOrUnknown"
	TLDUnknown       TLDClass = "unknown"
)

// RiskLevel is the bucket of a risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RecordType is a DNS record type the classifier asks for.
type RecordType string

const (
	TypeA     RecordType = "A"
	TypeAAAA  RecordType = "AAAA"
	TypeCNAME RecordType = "CNAME"
	TypeMX    RecordType = "MX"
	TypeTXT   RecordType = "TXT"
)

// Resolver answers one DNS question. Implementations return an error for
// failed lookups; the classifier treats that as "no records".
type Resolver interface {
	Resolve(ctx context.Context, name string, t RecordType) ([]string, error)
}

// DNSRecords holds the answers collected for display. Lists are never nil.
type DNSRecords struct {
	A     []string `json:"A"`
	AAAA  []string `json:"AAAA"`
	CNAME []string `json:"CNAME"`
	MX    []string `json:"MX"`
	TXT   []string `json:"TXT"`
}

// Classification is computed fresh for every call.
type Classification struct {
	Domain          string     `json:"domain"`
	TLDClass        TLDClass   `json:"tldClass"`
	IsFreeHosting   bool       `json:"isFreeHosting"`
	HostingProvider *Provider  `json:"hostingProvider"`
	Subdomain       *string    `json:"subdomain"`
	RootDomain      string     `json:"rootDomain"`
	DNSRecords      DNSRecords `json:"dnsRecords"`
	RiskScore       int        `json:"riskScore"`
	RiskLevel       RiskLevel  `json:"riskLevel"`
	RiskFactors     []string   `json:"riskFactors"`
	Evidence        []string   `json:"evidence"`
}

// DiscoveredSubdomain is a wordlist candidate that resolved.
type DiscoveredSubdomain struct {
	Name   string `json:"subdomain"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// Options tunes the extended wordlist scan.
type Options struct {
	Wordlist        []string
	ScanRate        float64 // queries per second, 0 means unpaced
	ScanConcurrency int
}

// Classifier holds no per-domain state; one value can serve concurrent calls.
type Classifier struct {
	resolver Resolver
	opts     Options
}

// New returns a classifier. A nil resolver disables every DNS-based stage.
func New(r Resolver, opts Options) *Classifier {
	if len(opts.Wordlist) == 0 {
		opts.Wordlist = DefaultWordlist
	}
	if opts.ScanConcurrency <= 0 {
		opts.ScanConcurrency = 8
	}
	return &Classifier{resolver: r, opts: opts}
}

// Classify runs the classification pipeline for domain.
func (c *Classifier) Classify(ctx context.Context, domain string) Classification {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")

	out := Classification{
		Domain:      domain,
		TLDClass:    TLDUnknown,
		RootDomain:  domain,
		DNSRecords:  c.collect(ctx, domain),
		RiskFactors: []string{},
		Evidence:    []string{},
	}

	detectTLD(&out)
	detectFreeHosting(&out)
	detectSubdomain(&out)
	scoreRisk(&out)
	return out
}

// ClassifyComprehensive classifies domain and then probes the wordlist
// against its root domain.
func (c *Classifier) ClassifyComprehensive(ctx context.Context, domain string) (Classification, []DiscoveredSubdomain) {
	cls := c.Classify(ctx, domain)
	return cls, c.ScanSubdomains(ctx, cls.RootDomain)
}

var collectedTypes = []RecordType{TypeA, TypeAAAA, TypeCNAME, TypeMX, TypeTXT}

// collect resolves every record type concurrently. Each branch writes only
// its own slot.
func (c *Classifier) collect(ctx context.Context, domain string) DNSRecords {
	answers := make([][]string, len(collectedTypes))

	if c.resolver != nil && domain != "" {
		var g errgroup.Group
		for i, t := range collectedTypes {
			g.Go(func() error {
				values, err := c.resolver.Resolve(ctx, domain, t)
				if err != nil {
					logx.Debug("Resolución DNS sin respuesta", logx.Fields{"domain": domain, "type": string(t), "error": err})
					return nil
				}
				answers[i] = values
				return nil
			})
		}
		_ = g.Wait()
	}

	for i := range answers {
		if answers[i] == nil {
			answers[i] = []string{}
		}
	}
	return DNSRecords{A: answers[0], AAAA: answers[1], CNAME: answers[2], MX: answers[3], TXT: answers[4]}
}

func detectTLD(out *Classification) {
	if t, ok := matchPaidTLD(out.Domain); ok {
		out.TLDClass = TLDPaid
		out.Evidence = append(out.Evidence, "tld:"+t)
		return
	}
	if strings.Contains(out.Domain, ".") {
		out.TLDClass = TLDFreeOrUnknown
		out.Evidence = append(out.Evidence, "tld_analysis")
	}
}

func detectFreeHosting(out *Classification) {
	if apex, ok := matchFreeHosting(out.Domain); ok {
		out.IsFreeHosting = true
		out.HostingProvider = providerFor(apex)
		out.Evidence = append(out.Evidence, "free_hosting:"+apex)
		if out.Domain != apex {
			sub := strings.TrimSuffix(out.Domain, "."+apex)
			out.Subdomain = &sub
			out.RootDomain = apex
		}
		return
	}

	for _, cname := range out.DNSRecords.CNAME {
		if apex, ok := matchFreeHosting(cname); ok {
			out.IsFreeHosting = true
			out.HostingProvider = providerFor(apex)
			out.Evidence = append(out.Evidence, "dns_cname:"+apex)
			return
		}
	}

	ips := append(append([]string{}, out.DNSRecords.A...), out.DNSRecords.AAAA...)
	for _, ip := range ips {
		if r, ok := matchRange(ip); ok {
			out.IsFreeHosting = true
			if r.provider != "" {
				out.HostingProvider = providerFor(r.provider)
			}
			out.Evidence = append(out.Evidence, "dns_ip:"+ip)
			return
		}
	}
}

// detectSubdomain treats the leading labels as a subdomain when the last two
// labels are not themselves a paid suffix. When they are (co.uk), the public
// suffix list decides where the registrable name starts.
func detectSubdomain(out *Classification) {
	if out.Subdomain != nil {
		return
	}
	labels := strings.Split(out.Domain, ".")
	if len(labels) <= 2 {
		return
	}

	base := strings.Join(labels[len(labels)-2:], ".")
	if !isPaidTLD(base) {
		sub := strings.Join(labels[:len(labels)-2], ".")
		out.Subdomain = &sub
		out.RootDomain = base
		out.Evidence = append(out.Evidence, "subdomain_detection")
		return
	}

	reg := netutil.RegistrableDomain(out.Domain)
	if reg == "" || reg == out.Domain {
		return
	}
	sub := strings.TrimSuffix(out.Domain, "."+reg)
	out.Subdomain = &sub
	out.RootDomain = reg
	out.Evidence = append(out.Evidence, "subdomain_detection")
}

const (
	riskFreeHosting = 30
	riskTLD         = 20
	riskSubdomain   = 15
)

func scoreRisk(out *Classification) {
	score := 0
	if out.IsFreeHosting {
		score += riskFreeHosting
		out.RiskFactors = append(out.RiskFactors, "free_hosting")
	}
	if out.TLDClass != TLDPaid {
		score += riskTLD
		out.RiskFactors = append(out.RiskFactors, "unknown_tld")
	}
	if out.Subdomain != nil {
		score += riskSubdomain
		out.RiskFactors = append(out.RiskFactors, "subdomain")
	}
	out.RiskScore = score
	out.RiskLevel = RiskLevelFor(score)
}

// RiskLevelFor maps an additive risk score onto its level.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= 50:
		return RiskHigh
	case score >= 25:
		return RiskMedium
	default:
		return RiskLow
	}
}
