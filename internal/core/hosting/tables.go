package hosting

import (
	"net/netip"
	"sort"
	"strings"

	"abuse-rec/internal/platform/netutil"
)

// Provider describes a hosting platform and where to report abuse on it.
type Provider struct {
	Name         string `json:"name"`
	AbuseContact string `json:"abuseContact,omitempty"`
	AbuseForm    string `json:"abuseForm,omitempty"`
	Type         string `json:"type"`
}

const typeFreeHosting = "free_hosting"

var paidTLDList = []string{
	".com", ".org", ".net", ".biz", ".info", ".name", ".pro", ".mobi", ".tel", ".travel", ".jobs", ".cat", ".aero", ".coop", ".museum",
	".com.br", ".org.br", ".gov.br", ".mil.br", ".edu.br", ".br", ".us", ".uk", ".co.uk", ".gov.uk", ".ac.uk", ".edu.au", ".gov.au",
	".ca", ".de", ".fr", ".jp", ".au", ".ru", ".ch", ".it", ".nl", ".se", ".no", ".es", ".mx", ".in", ".cn", ".za", ".nz", ".pt",
	".gr", ".ie", ".il", ".kr", ".tw", ".hk", ".be", ".at", ".dk", ".fi", ".pl", ".tr", ".cz", ".hu", ".ro", ".sk", ".lt", ".lv",
	".ee", ".ua", ".by", ".sg", ".my", ".th", ".ph", ".vn", ".ar", ".cl", ".pe",
	".dev", ".app", ".tech", ".io", ".me", ".co", ".xyz", ".online", ".site", ".store", ".website", ".space", ".fun", ".life",
	".digital", ".solutions", ".cloud", ".design", ".agency", ".studio", ".media", ".blue", ".green", ".red", ".news", ".press",
	".world", ".center", ".shop", ".software", ".systems", ".services", ".group", ".team", ".company", ".network",
	".gov", ".mil", ".edu", ".int",
	".bio", ".bio.br", ".eco", ".art", ".bank", ".finance", ".law", ".health", ".pharmacy", ".science", ".energy",
	".ai", ".tv", ".fm", ".gg",
}

// paidTLDs is paidTLDList without duplicates, longest suffix first.
var paidTLDs = func() []string {
	seen := make(map[string]struct{}, len(paidTLDList))
	out := make([]string, 0, len(paidTLDList))
	for _, t := range paidTLDList {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

var paidTLDSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(paidTLDs))
	for _, t := range paidTLDs {
		m[t] = struct{}{}
	}
	return m
}()

// matchPaidTLD returns the longest paid suffix of domain.
func matchPaidTLD(domain string) (string, bool) {
	for _, t := range paidTLDs {
		if strings.HasSuffix(domain, t) {
			return t, true
		}
	}
	return "", false
}

func isPaidTLD(suffix string) bool {
	_, ok := paidTLDSet["."+strings.TrimPrefix(suffix, ".")]
	return ok
}

var freeHostingApexes = []string{
	"pages.dev", "github.io", "vercel.app", "netlify.app", "web.app", "glitch.me",
	"herokuapp.com", "wordpress.com", "blogspot.com", "weebly.com", "000webhost.com",
	"infinityfree.net", "awardspace.com", "freenom.com", "dot.tk", "wixsite.com",
	"square.site", "blogger.com", "tumblr.com", "medium.com", "substack.com",
	"notion.site", "canva.site", "webflow.io", "surge.sh", "firebaseapp.com",
	"azurewebsites.net", "awsapps.com", "googleusercontent.com", "fbcdn.net",
	"repl.co", "codesandbox.io", "stackblitz.com", "gitpod.io",
}

var knownProviders = map[string]Provider{
	"pages.dev":        {Name: "Cloudflare Pages", Type: typeFreeHosting, AbuseContact: "abuse@cloudflare.com", AbuseForm: "https://abuse.cloudflare.com/"},
	"github.io":        {Name: "GitHub Pages", Type: typeFreeHosting, AbuseContact: "support@github.com", AbuseForm: "https://support.github.com/contact/report-abuse"},
	"vercel.app":       {Name: "Vercel", Type: typeFreeHosting, AbuseContact: "abuse@vercel.com", AbuseForm: "https://vercel.com/abuse"},
	"netlify.app":      {Name: "Netlify", Type: typeFreeHosting, AbuseContact: "fraud@netlify.com", AbuseForm: "https://www.netlify.com/abuse/"},
	"web.app":          {Name: "Firebase Hosting", Type: typeFreeHosting, AbuseContact: "firebase-abuse@google.com"},
	"glitch.me":        {Name: "Glitch", Type: typeFreeHosting, AbuseContact: "support@glitch.com"},
	"herokuapp.com":    {Name: "Heroku", Type: typeFreeHosting, AbuseContact: "abuse@heroku.com"},
	"wordpress.com":    {Name: "WordPress.com", Type: typeFreeHosting, AbuseContact: "abuse@wordpress.com", AbuseForm: "https://wordpress.com/abuse/"},
	"blogspot.com":     {Name: "Blogger", Type: typeFreeHosting, AbuseContact: "abuse@google.com"},
	"weebly.com":       {Name: "Weebly", Type: typeFreeHosting, AbuseContact: "abuse@weebly.com", AbuseForm: "https://www.weebly.com/abuse"},
	"000webhost.com":   {Name: "000webhost", Type: typeFreeHosting, AbuseContact: "abuse@000webhost.com"},
	"infinityfree.net": {Name: "InfinityFree", Type: typeFreeHosting, AbuseContact: "abuse@infinityfree.net"},
	"wixsite.com":      {Name: "Wix", Type: typeFreeHosting, AbuseContact: "abuse@wix.com", AbuseForm: "https://www.wix.com/about/abuse"},
	"repl.co":          {Name: "Replit", Type: typeFreeHosting, AbuseContact: "contact@replit.com"},
}

// providerFor returns the catalogued provider for an apex, or a bare one
// named after it.
func providerFor(apex string) *Provider {
	if p, ok := knownProviders[apex]; ok {
		return &p
	}
	return &Provider{Name: apex, Type: typeFreeHosting}
}

// matchFreeHosting returns the free-hosting apex that name equals or sits
// under.
func matchFreeHosting(name string) (string, bool) {
	for _, apex := range freeHostingApexes {
		if netutil.WithinDomain(name, apex) {
			return apex, true
		}
	}
	return "", false
}

type ipRange struct {
	prefix   netip.Prefix
	provider string // key into knownProviders, empty when the range is shared
}

var freeHostingRanges = []ipRange{
	{netip.MustParsePrefix("185.199.108.0/24"), "github.io"},
	{netip.MustParsePrefix("185.199.109.0/24"), "github.io"},
	{netip.MustParsePrefix("185.199.110.0/24"), "github.io"},
	{netip.MustParsePrefix("185.199.111.0/24"), "github.io"},
	{netip.MustParsePrefix("216.239.32.0/19"), ""},
	{netip.MustParsePrefix("172.217.0.0/19"), ""},
	{netip.MustParsePrefix("35.186.224.0/19"), ""},
	{netip.MustParsePrefix("76.76.21.0/24"), "vercel.app"},
}

// matchRange reports the range containing ip. Unparseable input never matches.
func matchRange(ip string) (ipRange, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ipRange{}, false
	}
	addr = addr.Unmap()
	for _, r := range freeHostingRanges {
		if r.prefix.Contains(addr) {
			return r, true
		}
	}
	return ipRange{}, false
}

// DefaultWordlist is probed by the extended scan, in this order.
var DefaultWordlist = []string{
	"www", "mail", "ftp", "localhost", "webmail", "smtp", "pop", "ns1", "ns2",
	"cdn", "api", "admin", "blog", "shop", "store", "app", "dev", "test",
	"staging", "secure", "portal", "cpanel", "whm", "webdisk", "webadmin",
	"server", "ns", "dns", "mx", "imap", "apps", "support", "help",
	"news", "forum", "community", "chat", "docs", "wiki", "status",
}
