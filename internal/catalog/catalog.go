// Package catalog serves the static subscription price list used when
// registering recurring subscription expenses. The embedded data is a
// periodically refreshed snapshot of public pricing pages; a price of
// zero means the plan exists but its price could not be captured.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed data/subscriptions.json
var embeddedFS embed.FS

// Plan is one priced tier of a subscription service.
type Plan struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// Service is a subscription provider and its plans.
type Service struct {
	Name  string `json:"name"`
	Plans []Plan `json:"plans"`
}

// Catalog holds the loaded price list. It is immutable after load.
type Catalog struct {
	services []Service
}

// Load returns the embedded snapshot.
func Load() (*Catalog, error) {
	data, err := embeddedFS.ReadFile("data/subscriptions.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	return parse(data)
}

// LoadFile reads a newer snapshot from disk, falling back on the
// embedded one when path does not exist.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Load()
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var services []Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("parse catalog: no services")
	}
	for _, svc := range services {
		if svc.Name == "" {
			return nil, fmt.Errorf("parse catalog: service without name")
		}
		if len(svc.Plans) == 0 {
			return nil, fmt.Errorf("parse catalog: service %s has no plans", svc.Name)
		}
	}
	return &Catalog{services: services}, nil
}

// Services returns all providers in catalog order.
func (c *Catalog) Services() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Find looks up a provider by name, case-insensitively.
func (c *Catalog) Find(name string) (Service, bool) {
	for _, svc := range c.services {
		if strings.EqualFold(svc.Name, name) {
			return svc, true
		}
	}
	return Service{}, false
}

// FindPlan looks up one plan of a provider, case-insensitively.
func (c *Catalog) FindPlan(serviceName, planName string) (Plan, bool) {
	svc, ok := c.Find(serviceName)
	if !ok {
		return Plan{}, false
	}
	for _, plan := range svc.Plans {
		if strings.EqualFold(plan.Name, planName) {
			return plan, true
		}
	}
	return Plan{}, false
}
