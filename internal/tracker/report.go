package tracker

import (
	"fmt"
	"time"
)

// Kind names what a report was produced for
type Kind string

const (
	KindTables        Kind = "tables"
	KindRelationships Kind = "relationships"
)

// Outcome of a batch that ran to completion
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePartial
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Item is the result of registering one table or one foreign key
type Item struct {
	Schema     string
	Table      string
	Constraint string
	Err        error
}

// Name identifies the item for users: schema.table, plus the constraint for relationships
func (i Item) Name() string {
	if i.Constraint != "" {
		return fmt.Sprintf("%s.%s (%s)", i.Schema, i.Table, i.Constraint)
	}
	return i.Schema + "." + i.Table
}

// OK reports whether the item was registered
func (i Item) OK() bool {
	return i.Err == nil
}

// Failure describes an item that could not be registered
func (i Item) Failure() string {
	verb := "tracking"
	if i.Constraint != "" {
		verb = "creating relationships for"
	}
	return fmt.Sprintf("failed %s %s: %v", verb, i.Name(), i.Err)
}

// Report aggregates per-item outcomes of a batch in processing order
type Report struct {
	Kind    Kind
	Items   []Item
	Elapsed time.Duration
}

// Total is the number of items attempted
func (r *Report) Total() int {
	return len(r.Items)
}

// Succeeded is the number of items registered
func (r *Report) Succeeded() int {
	n := 0
	for _, item := range r.Items {
		if item.OK() {
			n++
		}
	}
	return n
}

// Failures returns the items that could not be registered
func (r *Report) Failures() []Item {
	var failed []Item
	for _, item := range r.Items {
		if !item.OK() {
			failed = append(failed, item)
		}
	}
	return failed
}

// Outcome is OutcomeSuccess when no item failed
func (r *Report) Outcome() Outcome {
	if len(r.Failures()) == 0 {
		return OutcomeSuccess
	}
	return OutcomePartial
}
