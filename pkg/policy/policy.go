// Package policy holds the company cost guardrails and evaluates resources
// against them. Rules are expressed as glob-like patterns ("r5.*") and
// compiled to anchored regular expressions at construction.
package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Metadata describes the policy document itself.
type Metadata struct {
	CompanyName      string `json:"company_name"`
	PolicyVersion    string `json:"policy_version"`
	EnforcementLevel string `json:"enforcement_level"`
	EffectiveDate    string `json:"effective_date"`
	Description      string `json:"description"`
}

// ServiceRules is the per-service rule set. Only the fields relevant to a
// given service are populated.
type ServiceRules struct {
	DisallowedTypes  []string
	RecommendedTypes []string
	Rationale        string

	// Lambda
	MaxTimeoutSeconds int32
	MaxConcurrency    int32

	// S3
	LifecyclePolicyRequired bool

	// EBS / RDS storage
	MaxVolumeSizeGB int32

	compiled []*regexp.Regexp
}

// Policy is the compiled rule registry keyed by service name ("ec2", "rds",
// "lambda", "ebs", "s3", "elasticache").
type Policy struct {
	Metadata Metadata
	services map[string]*ServiceRules
}

// Default returns the company cost optimization policy.
func Default() *Policy {
	p := &Policy{
		Metadata: Metadata{
			CompanyName:      "Brickwatch Demo Corp",
			PolicyVersion:    "2025-Q1",
			EnforcementLevel: "strict",
			EffectiveDate:    "2025-01-01",
			Description:      "Cost optimization policies to ensure efficient AWS resource usage",
		},
		services: map[string]*ServiceRules{
			"ec2": {
				DisallowedTypes: []string{
					"r5.*", "r5a.*", "r5b.*", "r5n.*", "r6i.*", "r6a.*",
					"m5.*", "m5a.*", "m5n.*", "m6i.*",
					"c5.*", "c5a.*", "c5n.*", "c6i.*",
					"t2.*",
					"t3.large", "t3.xlarge", "t3.2xlarge",
				},
				RecommendedTypes: []string{"t3.micro", "t3.small", "t3.medium"},
				Rationale:        "Cost optimization - only T3 instance family up to medium size allowed. R5, M5, C5, and T2 families are not approved.",
			},
			"rds": {
				DisallowedTypes: []string{
					"db.r5.*", "db.r5b.*", "db.r6i.*", "db.m5.*", "db.m6i.*",
				},
				RecommendedTypes: []string{"db.t3.micro", "db.t3.small", "db.t3.medium"},
				MaxVolumeSizeGB:  100,
				Rationale:        "Database cost optimization - T3 instances are sufficient for most workloads. Use gp3 storage instead of provisioned IOPS.",
			},
			"lambda": {
				MaxTimeoutSeconds: 300,
				MaxConcurrency:    100,
				Rationale:         "Prevent runaway costs from unlimited scaling",
			},
			"ebs": {
				DisallowedTypes:  []string{"io1", "io2"},
				RecommendedTypes: []string{"gp3"},
				MaxVolumeSizeGB:  1000,
				Rationale:        "gp3 provides good performance at lower cost than provisioned IOPS",
			},
			"s3": {
				LifecyclePolicyRequired: true,
				RecommendedTypes:        []string{"INTELLIGENT_TIERING", "GLACIER_IR"},
				Rationale:               "Use Intelligent-Tiering for automatic cost optimization",
			},
			"elasticache": {
				DisallowedTypes: []string{
					"cache.r5.*", "cache.r6g.*", "cache.m5.*", "cache.m6g.*",
				},
				RecommendedTypes: []string{"cache.t3.micro", "cache.t3.small", "cache.t3.medium"},
				Rationale:        "T3 cache nodes are sufficient for most caching workloads",
			},
		},
	}
	for name, rules := range p.services {
		for _, pattern := range rules.DisallowedTypes {
			re, err := compileGlob(pattern)
			if err != nil {
				// Patterns are static; a bad one is a programming error.
				panic(fmt.Sprintf("policy: invalid pattern %q for %s: %v", pattern, name, err))
			}
			rules.compiled = append(rules.compiled, re)
		}
	}
	return p
}

// compileGlob converts a glob-like pattern ("r5.*") into an anchored regexp:
// literal dots are escaped, "*" matches any run of characters.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	escaped := strings.ReplaceAll(pattern, ".", `\.`)
	escaped = strings.ReplaceAll(escaped, "*", ".*")
	return regexp.Compile("^" + escaped + "$")
}

// Service returns the rules for a service, or nil when none are defined.
func (p *Policy) Service(service string) *ServiceRules {
	return p.services[service]
}

// IsTypeAllowed reports whether an instance type, class, or volume type
// passes the service's disallow list. Services without rules default to
// allowed.
func (p *Policy) IsTypeAllowed(service, resourceType string) bool {
	rules := p.services[service]
	if rules == nil {
		return true
	}
	for _, re := range rules.compiled {
		if re.MatchString(resourceType) {
			return false
		}
	}
	return true
}

// RecommendedType picks a policy-aligned replacement for the given type.
// "t3.medium" wins when present in the recommended list; otherwise the first
// entry; otherwise the input is returned unchanged.
func (p *Policy) RecommendedType(service, currentType string) string {
	rules := p.services[service]
	if rules == nil || len(rules.RecommendedTypes) == 0 {
		return currentType
	}
	for _, t := range rules.RecommendedTypes {
		if t == "t3.medium" {
			return t
		}
	}
	return rules.RecommendedTypes[0]
}

// Rationale returns the service's policy rationale, falling back to a
// generic line for services without one.
func (p *Policy) Rationale(service string) string {
	if rules := p.services[service]; rules != nil && rules.Rationale != "" {
		return rules.Rationale
	}
	return "Company cost optimization policy"
}

// MaxLambdaConcurrency returns the reserved concurrency ceiling.
func (p *Policy) MaxLambdaConcurrency() int32 {
	return p.services["lambda"].MaxConcurrency
}

// LifecycleRequired reports whether S3 buckets must carry a lifecycle policy.
func (p *Policy) LifecycleRequired() bool {
	return p.services["s3"].LifecyclePolicyRequired
}
