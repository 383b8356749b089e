// Package wstest replays recorded expectations against a client.Template so
// code that sends messages can be tested without a live endpoint.
//
// A MockServer replaces the template's senders. Each exchange is matched
// against the next unsatisfied expectation and answered by that
// expectation's ResponseCreator:
//
//	server := wstest.CreateServer(tpl)
//	server.Expect(wstest.Payload(json.RawMessage(`{"ping":{}}`))).
//		AndExpect(wstest.ConnectionTo("http://example.com/ws")).
//		AndRespond(wstest.WithPayload(json.RawMessage(`{"pong":{}}`)))
//
//	// exercise the code under test
//
//	if err := server.Verify(); err != nil {
//		t.Fatal(err)
//	}
//
// A request that fails a matcher, or arrives when no expectation is left,
// makes the exchange fail with an assertion error from pkg/errors.
package wstest
