package wstest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/kylelemons/godebug/diff"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/ajitpratap0/wsclient-go/pkg/message"
	"github.com/ajitpratap0/wsclient-go/pkg/transport"
	"github.com/ajitpratap0/wsclient-go/pkg/utils"
)

// RequestMatcher checks one outgoing request. A nil error means the request
// matched; a *Mismatch describes what did not.
type RequestMatcher interface {
	Match(uri *url.URL, request message.Message) error
}

// RequestMatcherFunc adapts a function to RequestMatcher
type RequestMatcherFunc func(uri *url.URL, request message.Message) error

// Match implements RequestMatcher
func (f RequestMatcherFunc) Match(uri *url.URL, request message.Message) error {
	return f(uri, request)
}

// Mismatch is returned by matchers when a request does not meet them
type Mismatch struct {
	Matcher  string
	Expected string
	Actual   string
}

func (m *Mismatch) Error() string {
	if m.Expected == "" && m.Actual == "" {
		return m.Matcher
	}
	return fmt.Sprintf("%s: expected <%s> but was <%s>", m.Matcher, m.Expected, m.Actual)
}

// Anything matches every request
func Anything() RequestMatcher {
	return RequestMatcherFunc(func(*url.URL, message.Message) error { return nil })
}

// Payload matches requests whose body is structurally equal to doc.
// Whitespace and object key order are ignored.
func Payload(doc json.RawMessage) RequestMatcher {
	want := utils.CanonicalJSON(doc)
	return RequestMatcherFunc(func(_ *url.URL, request message.Message) error {
		got := request.Payload()
		equal, err := utils.EqualJSON(doc, got)
		if err == nil && equal {
			return nil
		}
		have := utils.CanonicalJSON(got)
		matcher := "payload mismatch (-expected +actual):\n" + diff.Diff(want, have)
		if err != nil {
			matcher = "payload mismatch: " + err.Error()
		}
		return &Mismatch{
			Matcher:  matcher,
			Expected: utils.CompactJSON(doc),
			Actual:   utils.CompactJSON(got),
		}
	})
}

// ValidPayload matches requests whose body validates against the JSON
// schemas. The first schema is the root; the one at index i is reachable
// from it as "schema<i>.json".
func ValidPayload(schemas ...json.RawMessage) RequestMatcher {
	compiled, compileErr := utils.CompileSchemas(schemas...)
	return RequestMatcherFunc(func(_ *url.URL, request message.Message) error {
		if compileErr != nil {
			return &Mismatch{Matcher: "schema could not be loaded: " + compileErr.Error()}
		}
		if err := utils.ValidateCompiled(compiled, request.Payload()); err != nil {
			reason := err.Error()
			var verr *jsonschema.ValidationError
			if errors.As(err, &verr) {
				reason = fmt.Sprintf("%#v", verr)
			}
			return &Mismatch{
				Matcher: "payload is not valid: " + reason,
				Actual:  utils.CompactJSON(request.Payload()),
			}
		}
		return nil
	})
}

// PathExpectations builds matchers over a path expression evaluated against
// the request body
type PathExpectations struct {
	expr string
}

// Path starts a matcher for expr, a gjson path such as "order.items.#" or
// "items.#(sku==\"A1\").count"
func Path(expr string) PathExpectations {
	return PathExpectations{expr: expr}
}

// Exists matches when the expression selects a value
func (p PathExpectations) Exists() RequestMatcher {
	return RequestMatcherFunc(func(_ *url.URL, request message.Message) error {
		if p.result(request).Exists() {
			return nil
		}
		return &Mismatch{
			Matcher: fmt.Sprintf("no value at path %q", p.expr),
			Actual:  utils.CompactJSON(request.Payload()),
		}
	})
}

// DoesNotExist matches when the expression selects nothing
func (p PathExpectations) DoesNotExist() RequestMatcher {
	return RequestMatcherFunc(func(_ *url.URL, request message.Message) error {
		res := p.result(request)
		if !res.Exists() {
			return nil
		}
		return &Mismatch{
			Matcher: fmt.Sprintf("unexpected value at path %q", p.expr),
			Actual:  res.Raw,
		}
	})
}

// EvaluatesTo matches when the selected value equals want once both are
// rendered as JSON
func (p PathExpectations) EvaluatesTo(want interface{}) RequestMatcher {
	expected, marshalErr := json.Marshal(want)
	return RequestMatcherFunc(func(_ *url.URL, request message.Message) error {
		if marshalErr != nil {
			return &Mismatch{Matcher: fmt.Sprintf("path %q: %v", p.expr, marshalErr)}
		}
		res := p.result(request)
		if res.Exists() {
			if equal, err := utils.EqualJSON(expected, json.RawMessage(res.Raw)); err == nil && equal {
				return nil
			}
		}
		return &Mismatch{
			Matcher:  fmt.Sprintf("path %q evaluated to a different value", p.expr),
			Expected: string(expected),
			Actual:   res.Raw,
		}
	})
}

func (p PathExpectations) result(request message.Message) gjson.Result {
	return gjson.GetBytes(request.Payload(), p.expr)
}

// Header matches requests carrying header name with value
func Header(name, value string) RequestMatcher {
	return RequestMatcherFunc(func(_ *url.URL, request message.Message) error {
		got, ok := request.Header()[name]
		if ok && got == value {
			return nil
		}
		if !ok {
			got = "no header"
		}
		return &Mismatch{Matcher: fmt.Sprintf("header %q", name), Expected: value, Actual: got}
	})
}

// Action matches requests addressed to action
func Action(action string) RequestMatcher {
	return RequestMatcherFunc(func(_ *url.URL, request message.Message) error {
		if request.Action() == action {
			return nil
		}
		return &Mismatch{Matcher: "action", Expected: action, Actual: request.Action()}
	})
}

// ConnectionTo matches requests sent to uri
func ConnectionTo(uri string) RequestMatcher {
	want, parseErr := transport.ParseDestination(uri)
	return RequestMatcherFunc(func(got *url.URL, _ message.Message) error {
		if parseErr != nil {
			return &Mismatch{Matcher: "destination: " + parseErr.Error(), Expected: uri, Actual: got.String()}
		}
		if got.String() == want.String() {
			return nil
		}
		return &Mismatch{Matcher: "destination", Expected: want.String(), Actual: got.String()}
	})
}

// allOf composes matchers by logical AND, reporting the first failure
type allOf []RequestMatcher

func (m allOf) Match(uri *url.URL, request message.Message) error {
	for _, matcher := range m {
		if err := matcher.Match(uri, request); err != nil {
			return err
		}
	}
	return nil
}
