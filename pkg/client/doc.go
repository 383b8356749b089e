// Package client provides the Template, a synchronous request/response
// engine that sends messages to destinations over pluggable transports.
//
// # Exchanges
//
// Every exchange runs the same steps:
//
//   - pick the destination, falling back to the default URI
//   - resolve it to a connection with the first supporting sender
//   - create the request and run the request callbacks
//   - run interceptors, then send
//   - when a response is available, receive it and either resolve its
//     fault or hand it to the extractor
//   - close the connection, whatever happened
//
// The Template never retries and never wraps the errors it returns. Retry
// and connection pooling belong to the senders in package transport.
//
// # Creating a Template
//
//	sender, err := transport.NewMessageSender(transport.DefaultConfig(transport.SenderTypeHTTP))
//	if err != nil {
//	    return err
//	}
//	tpl, err := client.New(
//	    client.WithDefaultURI("https://orders.example.com/ws"),
//	    client.WithMessageSenders(sender),
//	)
//
// A Template can also be built from a YAML file with LoadConfig and
// NewFromConfig.
//
// # Sending
//
//	var reply OrderConfirmation
//	ok, err := tpl.MarshalSendAndReceive(ctx, "", &Order{ID: 7}, &reply,
//	    client.ActionCallback("urn:orders:create"))
//
// SendDocument exchanges raw JSON documents, Send is for destinations that
// may not answer, and SendAndReceiveWithConnection hands the open connection
// to a custom extractor.
//
// # Faults
//
// A response carrying a fault is passed to the FaultResolver. The default
// resolver returns an error from package errors in the fault category, so
// callers can tell a failed conversation (transport category) from an
// error answer:
//
//	if wserrors.IsFault(err) {
//	    // the endpoint answered with a fault
//	}
package client
