package review

import "fmt"

// Wire keys of the review-status API.
const (
	KeyItems  = "homeworks"
	KeyCursor = "current_date"
	KeyName   = "homework_name"
	KeyStatus = "status"
)

// Payload is a decoded JSON response body before validation.
type Payload = any

// Item is one homework entry of the response.
type Item struct {
	Name   string
	Status string
	// HasStatus is set when the status key is present and not null, so an
	// explicit "" can be told apart from an absent status.
	HasStatus bool
}

// StatusKnown reports whether the item carries a status value, empty or not.
func (it Item) StatusKnown() bool { return it.HasStatus || it.Status != "" }

// Response is a validated API response. Only the latest item is ever decoded.
type Response struct {
	Cursor    int64
	HasCursor bool

	items []any
}

// Len returns the number of entries in the items list.
func (r Response) Len() int { return len(r.items) }

// Latest decodes the most recent item (the last one). It returns false when
// there are none and TypeMismatch when the last entry is not an object.
// Earlier entries are never inspected.
func (r Response) Latest() (Item, bool, error) {
	if len(r.items) == 0 {
		return Item{}, false, nil
	}
	i := len(r.items) - 1
	obj, ok := r.items[i].(map[string]any)
	if !ok {
		return Item{}, false, TypeMismatch(fmt.Sprintf("%s[%d] is %s, want object", KeyItems, i, jsonType(r.items[i])))
	}
	status, hasStatus := obj[KeyStatus]
	return Item{
		Name:      stringField(obj, KeyName),
		Status:    stringField(obj, KeyStatus),
		HasStatus: hasStatus && status != nil,
	}, true, nil
}
