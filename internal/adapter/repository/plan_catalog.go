package repository

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

type plansFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"`
	Interval string `yaml:"interval"`
}

type planCatalog struct {
	byID  map[string]*entity.Plan
	order []*entity.Plan
}

// NewPlanCatalog builds an in-memory catalog from already validated plans
func NewPlanCatalog(plans []*entity.Plan) repository.PlanCatalog {
	c := &planCatalog{byID: make(map[string]*entity.Plan, len(plans))}
	for _, p := range plans {
		c.byID[p.ID] = p
		c.order = append(c.order, p)
	}
	sort.SliceStable(c.order, func(i, j int) bool { return c.order[i].Amount < c.order[j].Amount })
	return c
}

// LoadPlanCatalog reads the plan catalog YAML file
func LoadPlanCatalog(path string) (repository.PlanCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return NewPlanCatalog(nil), nil
	}

	var file plansFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal plans yaml: %w", err)
	}

	seen := make(map[string]bool, len(file.Plans))
	plans := make([]*entity.Plan, 0, len(file.Plans))
	for i, entry := range file.Plans {
		if entry.ID == "" {
			return nil, fmt.Errorf("plans[%d]: id is required", i)
		}
		if entry.ID == entity.FreePlanID {
			return nil, fmt.Errorf("plans[%d]: %q is reserved", i, entity.FreePlanID)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("plans[%d]: duplicate id %q", i, entry.ID)
		}
		seen[entry.ID] = true

		if entry.Amount <= 0 {
			return nil, fmt.Errorf("plans[%d]: amount must be positive", i)
		}

		interval := entity.Interval(strings.ToLower(entry.Interval))
		if interval == "" {
			interval = entity.IntervalMonthly
		}
		if !interval.Valid() {
			return nil, fmt.Errorf("plans[%d]: unsupported interval %q", i, entry.Interval)
		}

		currency := strings.ToUpper(strings.TrimSpace(entry.Currency))
		if len(currency) != 3 {
			return nil, fmt.Errorf("plans[%d]: currency must be an ISO 4217 code", i)
		}

		name := entry.Name
		if name == "" {
			name = entry.ID
		}

		plans = append(plans, &entity.Plan{
			ID:       entry.ID,
			Name:     name,
			Amount:   entry.Amount,
			Currency: currency,
			Interval: interval,
		})
	}

	return NewPlanCatalog(plans), nil
}

func (c *planCatalog) Get(planID string) *entity.Plan {
	return c.byID[planID]
}

func (c *planCatalog) List() []*entity.Plan {
	out := make([]*entity.Plan, len(c.order))
	copy(out, c.order)
	return out
}
