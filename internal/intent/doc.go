// Package intent classifies a user's message into one of a closed set of
// intents and extracts the structured payload for it.
//
// Classification is delegated to a language model through the Model
// interface. The model's answer is checked against a schema before anything
// downstream sees it: malformed JSON, missing keys, an unknown intent,
// non-string fields, unparsable timestamps or an invalid RRULE all resolve
// to the Failed action.
//
// During an edit the Resolver is called a second time with a MergeContext
// holding a snapshot of the event being edited. The model then returns the
// complete updated event; the Resolver does no field-level merging itself.
package intent
