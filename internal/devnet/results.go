package devnet

import (
	"sync"
	"time"

	"github.com/rkb-chain/rkb-devnet/internal/readiness"
	"github.com/rkb-chain/rkb-devnet/internal/stack"
)

// GroupResult is the accumulated outcome of one service group's bootstrap.
type GroupResult struct {
	Group      *stack.ServiceGroup
	State      readiness.State
	Credential *readiness.Credential
	RunningAt  time.Time
	Err        error
}

// Results collects per-group outcomes as the bootstrap progresses. Pipelines
// for different groups run concurrently, so access is guarded.
type Results struct {
	mutex   sync.Mutex
	byGroup map[string]*GroupResult
	order   []string
}

func NewResults() *Results {
	return &Results{byGroup: map[string]*GroupResult{}}
}

func (results *Results) Record(groupName string, result *GroupResult) {
	results.mutex.Lock()
	defer results.mutex.Unlock()
	if _, found := results.byGroup[groupName]; !found {
		results.order = append(results.order, groupName)
	}
	results.byGroup[groupName] = result
}

func (results *Results) Get(groupName string) (*GroupResult, bool) {
	results.mutex.Lock()
	defer results.mutex.Unlock()
	result, found := results.byGroup[groupName]
	return result, found
}

// InOrder returns results in first-recorded order for stable reporting.
func (results *Results) InOrder() []*GroupResult {
	results.mutex.Lock()
	defer results.mutex.Unlock()
	ordered := make([]*GroupResult, 0, len(results.order))
	for _, groupName := range results.order {
		ordered = append(ordered, results.byGroup[groupName])
	}
	return ordered
}

// FailedGroups returns the names of groups whose pipeline failed.
func (results *Results) FailedGroups() []string {
	results.mutex.Lock()
	defer results.mutex.Unlock()
	failed := []string{}
	for _, groupName := range results.order {
		if results.byGroup[groupName].Err != nil {
			failed = append(failed, groupName)
		}
	}
	return failed
}
