// Package whatsapp delivers assistant replies over WhatsApp through the
// Twilio Messaging API and validates inbound Twilio webhooks.
//
// Two notifiers are provided:
//   - TwilioNotifier sends real WhatsApp messages
//   - ConsoleNotifier writes replies to an io.Writer for local runs
//
// Example usage:
//
//	n, err := whatsapp.NewTwilioNotifier(whatsapp.Config{
//	    AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
//	    AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
//	    From:       os.Getenv("TWILIO_WHATSAPP_NUMBER"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = n.Send(ctx, "whatsapp:+56912345678", "Hello!")
package whatsapp
