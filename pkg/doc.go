// Package pkg holds the building blocks of the wsclient SDK.
//
// # Sub-packages
//
// Listed leaves first; each package only imports the ones above it:
//
//   - errors: SDKError, error codes and category helpers
//   - logging: structured logger with text, JSON and zerolog output
//   - message: envelopes, the message factory and marshallers
//   - utils: JSON document and schema helpers
//   - transport: senders per scheme and the middleware around them
//   - auth: credentials callbacks and rate-limit middleware
//   - client: the Template and its file configuration
//   - observability: metrics and tracing interceptors for a Template
//   - wstest: mock server for tests of Template users
//
// # Sending through a Template
//
//	sender, err := transport.NewMessageSender(transport.DefaultConfig(transport.SenderTypeNATS))
//	if err != nil {
//	    // Handle error
//	}
//	tpl, err := client.New(client.WithMessageSenders(sender))
//	if err != nil {
//	    // Handle error
//	}
//	defer tpl.Close()
//
//	var out Receipt
//	ok, err := tpl.MarshalSendAndReceive(ctx, "nats:orders.create", order, &out)
package pkg
