// Package domain holds identifier helpers shared by every store.
//
// Created records get short sequential identifiers ("rul-004", "usr-012").
// Sequence numbers only move forward: an identifier freed by a deletion is
// never issued again.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/platform/sentinel"
)

// Identifier prefixes.
const (
	PrefixUser         = "usr"
	PrefixOrganization = "org"
	PrefixCarrier      = "car"
	PrefixProduct      = "prod"
	PrefixRule         = "rul"
	PrefixSubmission   = "sub"
	PrefixEvent        = "evt"
)

const maxAllocateAttempts = 8

// Sequential formats n as a zero-padded identifier: Sequential("rul", 4) = "rul-004".
func Sequential(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// Random returns prefix followed by a random UUID, for records created outside
// the sequential scheme (submissions, analytics events).
func Random(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// HasPrefix reports whether id was issued under prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}

// SequenceOf extracts the sequence number from an identifier issued under
// prefix. ok is false for identifiers outside the sequential scheme.
func SequenceOf(prefix, id string) (n int, ok bool) {
	if !HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(prefix)+1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Counter is the high-water mark of sequence numbers seen by a memory store.
// It is not safe for concurrent use; callers hold their store lock.
type Counter struct {
	prefix string
	last   int
}

func NewCounter(prefix string) Counter {
	return Counter{prefix: prefix}
}

// Observe raises the mark to the sequence number of id, if it has one.
func (c *Counter) Observe(id string) {
	if n, ok := SequenceOf(c.prefix, id); ok && n > c.last {
		c.last = n
	}
}

// Next reserves and returns the next sequence number.
func (c *Counter) Next() int {
	c.last++
	return c.last
}

// Allocate creates a record under the next sequential identifier. next
// reserves a sequence number that has never been handed out; create must
// return sentinel.ErrConflict when the identifier is taken, in which case a
// fresh number is reserved.
func Allocate(ctx context.Context, prefix string, next func(context.Context) (int, error), create func(context.Context, string) error) (string, error) {
	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		n, err := next(ctx)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve "+prefix+" identifier")
		}
		id := Sequential(prefix, n)
		err = create(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return "", err
		}
	}
	return "", dErrors.New(dErrors.CodeConflict, "could not allocate a unique "+prefix+" identifier")
}
