/*
This file implements the DNS endpoint check against the proxy configuration. It:

- Verifies the pgbouncer.ini host entries use the PostgreSQL service DNS names
- Rejects configurations still pointing at a raw pod IP address
- Explains which condition failed so the operator can finish the remediation

A pod IP survives in the config only until the next pod restart; the check
passes only when a DNS name is present and no IP-based host entry remains.
*/

package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

// dnsPatterns are the accepted ways to address the database by name: the
// per-replica headless-service records or the namespace-qualified service
var dnsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`bleater-postgresql-0\.bleater-postgresql`),
	regexp.MustCompile(`bleater-postgresql-1\.bleater-postgresql`),
	regexp.MustCompile(`bleater-postgresql\.bleater`),
}

// ipHostPattern matches a host entry pinned to a raw IPv4 address
var ipHostPattern = regexp.MustCompile(`host=\d+\.\d+\.\d+\.\d+`)

// DNSEndpointCheck verifies the proxy addresses the database by DNS name
type DNSEndpointCheck struct {
	grading.BaseCheck
	source *Source
}

// NewDNSEndpointCheck creates a new DNS endpoint check
func NewDNSEndpointCheck(source *Source) *DNSEndpointCheck {
	return &DNSEndpointCheck{
		BaseCheck: grading.NewBaseCheck(
			"config-dns-endpoint",
			"Proxy Backend DNS Endpoint",
			"Checks that the proxy configuration uses DNS names instead of pod IP addresses",
			types.CategoryConfiguration,
			rubric.CriterionDNSEndpoint,
		),
		source: source,
	}
}

// Run executes the check
func (c *DNSEndpointCheck) Run() (grading.Result, error) {
	ini, err := c.source.Text()
	if err != nil {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Cannot verify DNS usage (config not found)")
		result.AddRecommendation(fmt.Sprintf("Ensure the %s ConfigMap exists and carries a %s entry", ConfigMapName, IniKey))
		return result.WithDetail(err.Error()), nil
	}

	usesDNS := false
	for _, pattern := range dnsPatterns {
		if pattern.MatchString(ini) {
			usesDNS = true
			break
		}
	}

	ipHosts := ipHostPattern.FindAllString(ini, -1)
	usesIP := len(ipHosts) > 0

	var detail strings.Builder
	detail.WriteString("=== Proxy Endpoint Analysis ===\n\n")
	detail.WriteString(fmt.Sprintf("DNS name present: %t\n", usesDNS))
	detail.WriteString(fmt.Sprintf("IP-based host entries: %d\n", len(ipHosts)))
	for _, host := range ipHosts {
		detail.WriteString(fmt.Sprintf("- %s\n", host))
	}

	if usesDNS && !usesIP {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusPassed, "Config uses DNS name (resilient to pod restarts)")
		return result.WithDetail(detail.String()), nil
	}

	var result grading.Result
	if usesIP {
		result = grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Config still uses IP address (will break on next restart)")
		result.AddRecommendation("Replace the IP-based host entry with the PostgreSQL service DNS name")
	} else {
		result = grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Config does not use proper DNS name")
		result.AddRecommendation("Point the proxy at the PostgreSQL service DNS name, e.g. bleater-postgresql.bleater")
	}
	return result.WithDetail(detail.String()), nil
}
