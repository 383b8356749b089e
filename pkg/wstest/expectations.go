package wstest

import (
	"errors"
	"net/url"

	wserrors "github.com/ajitpratap0/wsclient-go/pkg/errors"
	"github.com/ajitpratap0/wsclient-go/pkg/message"
)

// ResponseActions completes an expectation registered with MockServer.Expect
type ResponseActions interface {
	// AndExpect adds a matcher; every matcher must pass
	AndExpect(matcher RequestMatcher) ResponseActions
	// AndRespond sets how a matched request is answered. Calling it again
	// replaces the previous creator.
	AndRespond(creator ResponseCreator)
}

// expectation pairs matchers with the creator of the answer
type expectation struct {
	matchers  allOf
	creator   ResponseCreator
	satisfied bool
}

func (e *expectation) AndExpect(matcher RequestMatcher) ResponseActions {
	e.matchers = append(e.matchers, orAnything(matcher))
	return e
}

func (e *expectation) AndRespond(creator ResponseCreator) {
	e.creator = creator
}

// queue holds expectations in registration order. cursor is the index of
// the first unsatisfied expectation.
type queue struct {
	entries   []*expectation
	cursor    int
	unordered bool
}

func (q *queue) add(matcher RequestMatcher) *expectation {
	e := &expectation{matchers: allOf{orAnything(matcher)}}
	q.entries = append(q.entries, e)
	return e
}

// orAnything treats a nil matcher as Anything
func orAnything(matcher RequestMatcher) RequestMatcher {
	if matcher == nil {
		return Anything()
	}
	return matcher
}

func (q *queue) reset() {
	q.entries = nil
	q.cursor = 0
}

// match finds the expectation for a request and marks it satisfied
func (q *queue) match(uri *url.URL, request message.Message) (*expectation, error) {
	q.advance()
	if q.cursor >= len(q.entries) {
		return nil, wserrors.UnexpectedRequest(uri.String(), len(q.entries))
	}

	if !q.unordered {
		e := q.entries[q.cursor]
		if err := e.matchers.Match(uri, request); err != nil {
			return nil, assertionError(q.cursor, err)
		}
		e.satisfied = true
		q.advance()
		return e, nil
	}

	var firstErr error
	for i := q.cursor; i < len(q.entries); i++ {
		e := q.entries[i]
		if e.satisfied {
			continue
		}
		err := e.matchers.Match(uri, request)
		if err == nil {
			e.satisfied = true
			q.advance()
			return e, nil
		}
		if firstErr == nil {
			firstErr = assertionError(i, err)
		}
	}
	return nil, firstErr
}

// advance moves the cursor past satisfied expectations
func (q *queue) advance() {
	for q.cursor < len(q.entries) && q.entries[q.cursor].satisfied {
		q.cursor++
	}
}

// unmet lists the indexes of expectations never satisfied
func (q *queue) unmet() []int {
	var out []int
	for i, e := range q.entries {
		if !e.satisfied {
			out = append(out, i)
		}
	}
	return out
}

func assertionError(index int, err error) error {
	var mismatch *Mismatch
	if errors.As(err, &mismatch) {
		return wserrors.AssertionFailed(index, mismatch.Matcher, mismatch.Expected, mismatch.Actual)
	}
	return wserrors.AssertionFailed(index, err.Error(), "", "")
}
