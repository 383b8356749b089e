// Package wsclient is a client for request/response messaging over
// interchangeable transports, with a mock server for testing code that
// uses it.
//
// The root package re-exports the most used constructors from the
// sub-packages:
//
//   - pkg/client: the Template that runs exchanges, plus callbacks,
//     interceptors, fault resolution and file configuration
//   - pkg/transport: HTTP, WebSocket, NATS and in-memory senders and the
//     reliability and observability middleware around them
//   - pkg/message: envelopes, factories and marshallers
//   - pkg/auth: bearer token and API key credentials, client-side rate limits
//   - pkg/observability: Prometheus metrics and OpenTelemetry tracing
//   - pkg/wstest: the mock server used in tests
//   - pkg/errors: the error taxonomy shared by all of the above
//
// # Sending a document
//
//	tpl, err := wsclient.NewTemplate(
//	    wsclient.WithDefaultURI("https://orders.example.com/ws"),
//	    wsclient.WithMessageSenders(wsclient.NewHTTPMessageSender(
//	        wsclient.DefaultSenderConfig(wsclient.SenderTypeHTTP))),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tpl.Close()
//
//	reply, err := tpl.SendDocument(ctx, "", json.RawMessage(`{"order":{"sku":"A1"}}`),
//	    wsclient.ActionCallback("CreateOrder"))
//
// The destination scheme picks the sender: http(s)://, ws(s)://,
// nats:subject and mem:name are understood by the bundled senders. An
// empty destination uses the template default.
//
// # Errors
//
// Every failure is an errors.SDKError from pkg/errors. Faults answered by
// the endpoint are reported with IsFault, transport failures with
// IsTransportError, and mismatches found by the mock server with
// IsAssertion.
//
// # Testing
//
// pkg/wstest takes over a template's senders:
//
//	server := wstest.CreateServer(tpl)
//	server.Expect(wstest.Action("CreateOrder")).
//	    AndRespond(wstest.WithPayload(json.RawMessage(`{"id":"o-1"}`)))
//	// exercise the code under test
//	require.NoError(t, server.Verify())
package wsclient
