package hosting

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"abuse-rec/internal/platform/logx"
)

// ScanSubdomains probes every wordlist label under root with an A lookup.
// Failures and empty answers are skipped; results keep wordlist order.
func (c *Classifier) ScanSubdomains(ctx context.Context, root string) []DiscoveredSubdomain {
	found := []DiscoveredSubdomain{}
	if c.resolver == nil || root == "" {
		return found
	}

	var limiter *rate.Limiter
	if c.opts.ScanRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.opts.ScanRate), 1)
	}

	hits := make([]bool, len(c.opts.Wordlist))
	var g errgroup.Group
	g.SetLimit(c.opts.ScanConcurrency)

	for i, label := range c.opts.Wordlist {
		name := label + "." + root
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			ips, err := c.resolver.Resolve(ctx, name, TypeA)
			if err != nil || len(ips) == 0 {
				logx.Debug("Subdominio sin respuesta", logx.Fields{"component": "dns-scan", "name": name})
				return nil
			}
			hits[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for i, hit := range hits {
		if hit {
			found = append(found, DiscoveredSubdomain{
				Name:   c.opts.Wordlist[i] + "." + root,
				Type:   string(TypeA),
				Status: "active",
			})
		}
	}
	logx.Debug("Escaneo de subdominios completado", logx.Fields{"root": root, "found": len(found), "probed": len(hits)})
	return found
}
