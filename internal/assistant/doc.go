// Package assistant runs conversation turns.
//
// A turn is one inbound WhatsApp message and its single reply. The
// Dispatcher looks up the sender's session, asks the intent Resolver what
// the message means and applies the result to the sender's calendar:
//
//   - create schedules a new event and remembers its id
//   - edit reads the remembered event, asks the Resolver a second time
//     with that event as merge context and patches it with the answer
//   - delete cancels the remembered event
//   - query lists the events in a time window
//   - anything else gets a fallback reply
//
// Every branch ends in exactly one reply through the Notifier. Failures,
// including panics, are recovered at the turn boundary and turned into a
// reply; nothing escapes HandleMessage.
package assistant
