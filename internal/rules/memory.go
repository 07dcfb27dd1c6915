package rules

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository.
// Useful for testing and development.
type MemoryRepository struct {
	mu   sync.RWMutex
	byApp map[string][]Rule
}

// NewMemoryRepository creates an empty in-memory rule repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byApp: make(map[string][]Rule)}
}

func (r *MemoryRepository) RulesFor(ctx context.Context, appID, eventType string) ([]Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eventType = NormalizeEventType(eventType)
	var result []Rule
	for _, rule := range r.byApp[appID] {
		if rule.EventType == eventType {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (r *MemoryRepository) EventTypes(ctx context.Context, appID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rule := range r.byApp[appID] {
		seen[rule.EventType] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryRepository) Replace(ctx context.Context, appID string, ruleSet []Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := make([]Rule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		rule.AppID = appID
		rule.EventType = NormalizeEventType(rule.EventType)
		rule.Field = NormalizeField(rule.Field)
		normalized = append(normalized, rule)
	}
	r.byApp[appID] = normalized
	return nil
}
