package planner

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

// DefaultGuardCacheSize bounds the number of compiled guard programs a Planner keeps.
const DefaultGuardCacheSize = 256

// guardCache is a thread-safe LRU of compiled guard expressions.
type guardCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	lru     *list.List
}

type guardEntry struct {
	expression string
	program    *vm.Program
}

func newGuardCache(maxSize int) *guardCache {
	if maxSize <= 0 {
		maxSize = DefaultGuardCacheSize
	}
	return &guardCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element, maxSize),
		lru:     list.New(),
	}
}

func (c *guardCache) get(expression string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[expression]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*guardEntry).program, true
}

func (c *guardCache) put(expression string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[expression]; ok {
		elem.Value.(*guardEntry).program = program
		c.lru.MoveToFront(elem)
		return
	}
	c.entries[expression] = c.lru.PushFront(&guardEntry{expression: expression, program: program})
	for c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		delete(c.entries, oldest.Value.(*guardEntry).expression)
		c.lru.Remove(oldest)
	}
}

func (c *guardCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *guardCache) compile(expression string) (*vm.Program, error) {
	if program, ok := c.get(expression); ok {
		return program, nil
	}
	program, err := expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile guard %q: %w", expression, err)
	}
	c.put(expression, program)
	return program, nil
}

// eval runs a guard against state. The expression sees every state key as a
// top-level variable and the whole state as "state".
func (c *guardCache) eval(expression string, state worldstate.State) (bool, error) {
	program, err := c.compile(expression)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, guardEnv(state))
	if err != nil {
		return false, fmt.Errorf("evaluate guard %q: %w", expression, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("guard %q returned %T, want bool", expression, out)
	}
	return ok, nil
}

func guardEnv(state worldstate.State) map[string]any {
	plain := state.Interface()
	env := make(map[string]any, len(plain)+1)
	for k, v := range plain {
		env[k] = v
	}
	env["state"] = plain
	return env
}
